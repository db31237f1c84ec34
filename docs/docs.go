// Package docs registers the swagger document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Liveness check", "responses": {"200": {"description": "OK"}}}},
        "/auth/sign-up": {"post": {"tags": ["auth"], "summary": "Register a user", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/auth/sign-in": {"post": {"tags": ["auth"], "summary": "Issue an access token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}},
        "/api/v1/user": {"get": {"tags": ["auth"], "security": [{"BearerAuth": []}], "summary": "Current user", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/api/v1/simulation-events": {"get": {"tags": ["events"], "security": [{"BearerAuth": []}], "summary": "List simulation start/stop events", "parameters": [{"type": "string", "name": "order", "in": "query", "enum": ["asc", "desc"]}], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/checkup-events": {
            "get": {"tags": ["events"], "security": [{"BearerAuth": []}], "summary": "List temperature checkups", "parameters": [{"type": "string", "name": "order", "in": "query"}, {"type": "string", "name": "from", "in": "query"}, {"type": "string", "name": "to", "in": "query"}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}},
            "post": {"tags": ["events"], "security": [{"BearerAuth": []}], "summary": "Insert a checkup directly", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/checkup-events/export": {"get": {"tags": ["events"], "security": [{"BearerAuth": []}], "summary": "Checkup history as xlsx", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "OK"}}}},
        "/api/v1/rpc/insert_simulation_event": {"post": {"tags": ["rpc"], "security": [{"BearerAuth": []}], "summary": "Validated start/stop", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/rpc/insert_checkup_event": {"post": {"tags": ["rpc"], "security": [{"BearerAuth": []}], "summary": "Validated checkup insert", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/rpc/get_active_simulation_id": {"post": {"tags": ["rpc"], "security": [{"BearerAuth": []}], "summary": "Running simulation id", "responses": {"200": {"description": "OK"}}}},
        "/api/v1/functions/send-critical-alert": {"post": {"tags": ["functions"], "security": [{"BearerAuth": []}], "summary": "Send a critical temperature email", "responses": {"200": {"description": "OK"}, "500": {"description": "Delivery failed"}}}},
        "/api/v1/todos": {
            "get": {"tags": ["todos"], "security": [{"BearerAuth": []}], "summary": "List own todos", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["todos"], "security": [{"BearerAuth": []}], "summary": "Create a todo", "responses": {"201": {"description": "Created"}}}
        },
        "/api/v1/todos/{id}": {
            "patch": {"tags": ["todos"], "security": [{"BearerAuth": []}], "summary": "Update a todo", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["todos"], "security": [{"BearerAuth": []}], "summary": "Delete a todo", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}}
        },
        "/ws": {"get": {"tags": ["realtime"], "security": [{"BearerAuth": []}], "summary": "Websocket change notifications", "responses": {"101": {"description": "Switching Protocols"}}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "simdash API",
	Description:      "Simulation dashboard backend: event logs, validated procedures, realtime notifications and todos.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
