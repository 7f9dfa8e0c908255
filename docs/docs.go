// Package docs registers the OpenAPI document served under /swagger.
//
// The operations are described by the godoc annotations on the handlers in
// internal/http/handlers; regenerate this file with
//
//	swag init -g cmd/server/main.go -o docs --parseInternal
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
        "/challenges": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Challenges"],
                "summary": "List challenges",
                "operationId": "listChallenges",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Challenges"],
                "summary": "Create a challenge",
                "operationId": "createChallenge",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/events": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["Events"],
                "summary": "Stream change events as server-sent events",
                "operationId": "streamEvents",
                "responses": {"200": {"description": "event stream"}}
            }
        },
        "/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "The persisted session user",
                "operationId": "currentSession",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Challenge API",
	Description:      "Challenges, friends, chats and notifications over a shared domain store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
