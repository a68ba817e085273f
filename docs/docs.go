// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-up": {
            "post": {"tags": ["auth"], "summary": "Sign up", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/auth/sign-in": {
            "post": {"tags": ["auth"], "summary": "Sign in", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.authCredentials"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/anonymous": {
            "post": {"tags": ["auth"], "summary": "Anonymous sign in", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}
        },
        "/api/v1/companion/state": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["companion"], "summary": "Get companion state", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/companion/events": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["companion"], "summary": "Send a user action", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/sensai.EventRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "503": {"description": "Service Unavailable"}}}
        },
        "/api/v1/companion/interaction": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["companion"], "summary": "Record a user interaction", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/companion/narration": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["companion"], "summary": "Enable or disable narration", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/sensai.NarrationRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/companion/reset": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["companion"], "summary": "Reset all session data", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/sessions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "List sessions", "produces": ["application/json"], "responses": {"200": {"description": "count, sessions"}}}
        },
        "/api/v1/sessions/stats": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Session statistics", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/sessions/export": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Export sessions", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "responses": {"200": {"description": "workbook", "schema": {"type": "file"}}}}
        },
        "/api/v1/recommendations/preview": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Preview a recommendation", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/sensai.PreviewRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/sensai.PreviewResponse"}}}}
        },
        "/api/v1/logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "List companion journal", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"enum": ["TRANSITION", "NARRATION", "INTERVENTION", "SESSION_SAVED", "RESET", "ERROR"], "type": "string", "name": "type", "in": "query"}
                ],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "Bad Request"}}}
        },
        "/ws": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["companion"], "summary": "Companion stream",
                "parameters": [{"type": "string", "name": "access_token", "in": "query"}],
                "responses": {"101": {"description": "Switching Protocols"}}}
        }
    },
    "definitions": {
        "handlers.authCredentials": {
            "type": "object", "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "models.SaunaSettings": {
            "type": "object",
            "properties": {"music_enabled": {"type": "boolean"}, "temperature_c": {"type": "integer"}, "timer_minutes": {"type": "integer"}}
        },
        "models.Feedback": {
            "type": "object",
            "properties": {"heat": {"type": "string"}, "oil": {"type": "string"}, "rating": {"type": "integer"}, "recommendations_requested": {"type": "boolean"}, "show_stats": {"type": "boolean"}, "thoughts": {"type": "string"}}
        },
        "sensai.EventRequest": {
            "type": "object", "required": ["type"],
            "properties": {
                "type": {"type": "string", "example": "choose"},
                "option": {"type": "string", "example": "new"},
                "yes": {"type": "boolean"},
                "goal": {"type": "string", "example": "relaxation"},
                "settings": {"$ref": "#/definitions/models.SaunaSettings"},
                "feedback": {"$ref": "#/definitions/models.Feedback"}
            }
        },
        "sensai.NarrationRequest": {
            "type": "object", "required": ["enabled"],
            "properties": {"enabled": {"type": "boolean"}}
        },
        "sensai.PreviewRequest": {
            "type": "object",
            "properties": {
                "heat": {"type": "string", "example": "Just right"},
                "music_enabled": {"type": "boolean"},
                "oil": {"type": "string", "example": "eucalyptus"},
                "rating": {"type": "integer", "example": 7},
                "temperature_c": {"type": "integer", "example": 80},
                "thoughts": {"type": "string"},
                "timer_minutes": {"type": "integer", "example": 15}
            }
        },
        "sensai.PreviewResponse": {
            "type": "object",
            "properties": {
                "next_settings": {"$ref": "#/definitions/models.SaunaSettings"},
                "recommendation": {"type": "string"},
                "suggested_temperature_c": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SensAI companion API",
	Description:      "Voice-guided sauna sessions: companion state, session history and recommendations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
