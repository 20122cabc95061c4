// Package docs registers the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "User created successfully"}, "409": {"description": "Email or username already taken"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "User login", "responses": {"200": {"description": "JWT token and user data"}, "401": {"description": "Invalid credentials"}}}},
        "/users/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get user profile", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update user profile", "responses": {"200": {"description": "OK"}}}
        },
        "/users/profile/{username}": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get a user's public profile", "parameters": [{"type": "string", "name": "username", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}},
        "/users/suggested": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Suggested users", "responses": {"200": {"description": "OK"}}}},
        "/users/follow/{id}": {"post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Follow or unfollow a user", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}},
        "/users/search": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Search users and groups", "parameters": [{"type": "string", "name": "q", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/users/online": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Online users", "responses": {"200": {"description": "OK"}}}},
        "/conversations": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "List conversations", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Create a conversation", "responses": {"201": {"description": "Created"}}}
        },
        "/conversations/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Get a conversation", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Update a conversation", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/conversations/{id}/last-seen": {"put": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Mark last seen message", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/typing": {"put": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Toggle typing status", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/mute": {"put": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Mute or unmute a conversation", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/participants": {"put": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Add participants to a group", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/participants/{userId}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Remove a participant", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/leave": {"put": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Leave a conversation", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/add-admin/{userId}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Promote a participant to admin", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "userId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/remove-admin/{adminId}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Demote an admin", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "adminId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/conversations/{id}/transfer-ownership": {"put": {"security": [{"BearerAuth": []}], "tags": ["conversations"], "summary": "Transfer group ownership", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/messages/{conversationId}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Send a message", "parameters": [{"type": "string", "name": "conversationId", "in": "path", "required": true}], "responses": {"201": {"description": "Created"}}},
            "get": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "List messages", "parameters": [{"type": "string", "name": "conversationId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/messages/{conversationId}/seen": {"put": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Mark messages as seen", "parameters": [{"type": "string", "name": "conversationId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/messages/{messageId}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Delete a message for me", "parameters": [{"type": "string", "name": "messageId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/messages/completely/{messageId}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["messages"], "summary": "Delete a message for everyone", "parameters": [{"type": "string", "name": "messageId", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}},
        "/ws": {"get": {"tags": ["websocket"], "summary": "WebSocket connection", "parameters": [{"type": "string", "name": "token", "in": "query"}], "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Missing or invalid token"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Realtime Chat API",
	Description:      "Conversations, messages and realtime events over websocket",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
