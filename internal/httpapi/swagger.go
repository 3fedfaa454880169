//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"

	httpSwagger "github.com/swaggo/http-swagger"
)

// swaggerTemplate is the OpenAPI document served at /swagger/doc.json.
// Regenerate with `swag init -g cmd/g2pd/docs.go` when routes change.
const swaggerTemplate = `{
  "swagger": "2.0",
  "info": {"title": "{{.Title}}", "description": "{{escape .Description}}", "version": "{{.Version}}"},
  "basePath": "{{.BasePath}}",
  "schemes": {{ marshal .Schemes }},
  "paths": {
    "/models": {"get": {"tags": ["models"], "summary": "List available variants", "produces": ["application/json"],
      "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}},
    "/convert": {"post": {"tags": ["convert"], "summary": "Convert a manifest", "consumes": ["application/json"], "produces": ["application/json"],
      "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.ConvertRequest"}}],
      "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ConvertResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}},
    "/v1/g2p": {"post": {"tags": ["g2p"], "summary": "Convert grapheme strings", "consumes": ["application/json"], "produces": ["application/json"],
      "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.PredictRequest"}}],
      "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.PredictResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}}}}
  },
  "definitions": {
    "types.Variant": {"type": "object", "properties": {"name": {"type": "string"}, "description": {"type": "string"}, "location": {"type": "string"}, "family": {"type": "string"}, "backend": {"type": "string"}}},
    "types.ModelsResponse": {"type": "object", "properties": {"models": {"type": "array", "items": {"$ref": "#/definitions/types.Variant"}}}},
    "types.ConvertRequest": {"type": "object", "properties": {"model": {"type": "string"}, "manifest": {"type": "string"}, "output": {"type": "string"}, "grapheme_field": {"type": "string"}, "pred_field": {"type": "string"}, "batch_size": {"type": "integer"}, "num_workers": {"type": "integer"}, "return_predictions": {"type": "boolean"}}},
    "types.ConvertResponse": {"type": "object", "properties": {"model": {"type": "string"}, "output": {"type": "string"}, "records": {"type": "integer"}, "predictions": {"type": "array", "items": {"type": "string"}}}},
    "types.PredictRequest": {"type": "object", "properties": {"model": {"type": "string"}, "graphemes": {"type": "array", "items": {"type": "string"}}}},
    "types.PredictResponse": {"type": "object", "properties": {"phonemes": {"type": "array", "items": {"type": "string"}}}},
    "types.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}}
  }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "g2pd API",
	Description:      "HTTP API for grapheme-to-phoneme manifest conversion.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  swaggerTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
