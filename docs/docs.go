// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate with: swag init -g cmd/eventnotifier/main.go
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
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "data.status: ok", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/users": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Register a user",
                "parameters": [
                    {"description": "User data", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.CreateUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "data contains the created user", "schema": {"$ref": "#/definitions/controllers.UserSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "409": {"description": "error.code: conflict", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/users/{userID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "data contains the user", "schema": {"$ref": "#/definitions/controllers.UserSuccessResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Change a user's time zone",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true},
                    {"description": "New time zone", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.UpdateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the updated user", "schema": {"$ref": "#/definitions/controllers.UserSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            },
            "delete": {
                "tags": ["users"],
                "summary": "Delete a user",
                "parameters": [{"type": "string", "description": "User ID", "name": "userID", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "no content"},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        },
        "/triggers/{eventType}": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["triggers"],
                "summary": "Run the notification trigger",
                "parameters": [
                    {"type": "string", "description": "birthday or anniversary", "name": "eventType", "in": "path", "required": true},
                    {"description": "Optional instant to evaluate", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/controllers.RunTriggerRequest"}}
                ],
                "responses": {
                    "200": {"description": "data contains the trigger report", "schema": {"$ref": "#/definitions/controllers.TriggerSuccessResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "401": {"description": "error.code: unauthorized", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "404": {"description": "error.code: not_found", "schema": {"$ref": "#/definitions/helpers.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/helpers.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "controllers.CreateUserRequest": {
            "type": "object",
            "properties": {
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "birthday": {"type": "string", "example": "1990-01-20"},
                "anniversary": {"type": "string", "example": "--06-15"},
                "timezone": {"type": "string", "example": "Europe/Lisbon"}
            }
        },
        "controllers.UpdateUserRequest": {
            "type": "object",
            "properties": {"timezone": {"type": "string"}}
        },
        "controllers.RunTriggerRequest": {
            "type": "object",
            "properties": {"at": {"type": "string", "format": "date-time"}}
        },
        "controllers.UserSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/domain.User"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "controllers.TriggerSuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/services.TriggerReport"},
                "error": {"$ref": "#/definitions/helpers.APIError"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "userId": {"type": "string"},
                "firstName": {"type": "string"},
                "lastName": {"type": "string"},
                "birthday": {"type": "string"},
                "anniversary": {"type": "string"},
                "timezone": {"type": "string"},
                "createdAt": {"type": "string", "format": "date-time"},
                "updatedAt": {"type": "string", "format": "date-time"}
            }
        },
        "services.TriggerReport": {
            "type": "object",
            "properties": {
                "at": {"type": "string", "format": "date-time"},
                "eventType": {"type": "string"},
                "zones": {"type": "array", "items": {"type": "string"}},
                "candidates": {"type": "integer"},
                "matched": {"type": "integer"},
                "emitted": {"type": "integer"},
                "skipped": {"type": "integer"},
                "failedZones": {"type": "array", "items": {"type": "string"}},
                "failedUsers": {"type": "array", "items": {"type": "string"}}
            }
        },
        "helpers.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "helpers.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/helpers.APIError"}
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
	Title:            "Event Notifier API",
	Description:      "Registers users and sends birthday and anniversary greetings at 09:00 in each user's time zone.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
