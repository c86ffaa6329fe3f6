// Package docs builds the machine-readable API description served at
// /api-docs.json and the HTML viewer at /api-docs.
package docs

import (
	"encoding/json"
	"net/http"
)

const viewerHTML = `<!DOCTYPE html>
<html>
<head>
  <title>User CRUD API - docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      SwaggerUIBundle({
        url: "/api-docs.json",
        dom_id: "#swagger-ui",
        persistAuthorization: true
      });
    };
  </script>
</body>
</html>
`

// Document assembles the OpenAPI 3.0 description of the service.
func Document(serverURL string) map[string]any {
	messageSchema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
		},
	}
	userRef := map[string]any{"$ref": "#/components/schemas/User"}
	errorRef := map[string]any{"$ref": "#/components/schemas/Message"}

	jsonBody := func(schema map[string]any) map[string]any {
		return map[string]any{
			"required": true,
			"content":  map[string]any{"application/json": map[string]any{"schema": schema}},
		}
	}
	response := func(desc string, schema map[string]any) map[string]any {
		out := map[string]any{"description": desc}
		if schema != nil {
			out["content"] = map[string]any{"application/json": map[string]any{"schema": schema}}
		}
		return out
	}
	idParam := []map[string]any{{
		"in":          "path",
		"name":        "id",
		"required":    true,
		"schema":      map[string]any{"type": "string"},
		"description": "store-assigned id (24 hex characters)",
	}}
	security := []map[string]any{{"bearerAuth": []any{}}, {"basicAuth": []any{}}}

	return map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "User CRUD API",
			"version":     "1.0.0",
			"description": "A simple user API with MongoDB-backed storage and pluggable authentication",
		},
		"servers": []map[string]any{{"url": serverURL}},
		"components": map[string]any{
			"securitySchemes": map[string]any{
				"basicAuth":  map[string]any{"type": "http", "scheme": "basic"},
				"bearerAuth": map[string]any{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
			"schemas": map[string]any{
				"User": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        map[string]any{"type": "string", "example": "66b7d3a5f0c1d21f6a4d3a9e"},
						"name":      map[string]any{"type": "string", "example": "John Smith"},
						"age":       map[string]any{"type": "integer", "example": 30},
						"email":     map[string]any{"type": "string", "format": "email"},
						"createdAt": map[string]any{"type": "string", "format": "date-time"},
						"updatedAt": map[string]any{"type": "string", "format": "date-time"},
					},
				},
				"UserWrite": map[string]any{
					"type":     "object",
					"required": []string{"name", "age", "email"},
					"properties": map[string]any{
						"name":     map[string]any{"type": "string"},
						"age":      map[string]any{"type": "integer"},
						"email":    map[string]any{"type": "string", "format": "email"},
						"password": map[string]any{"type": "string"},
					},
				},
				"UserPatch": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":     map[string]any{"type": "string"},
						"age":      map[string]any{"type": "integer"},
						"email":    map[string]any{"type": "string", "format": "email"},
						"password": map[string]any{"type": "string"},
					},
				},
				"Message": messageSchema,
			},
		},
		"paths": map[string]any{
			"/auth/register": map[string]any{
				"post": map[string]any{
					"summary":     "Register a new user",
					"tags":        []string{"Auth"},
					"requestBody": jsonBody(map[string]any{"$ref": "#/components/schemas/UserWrite"}),
					"responses": map[string]any{
						"201": response("Registered", nil),
						"400": response("Duplicate email or missing fields", errorRef),
					},
				},
			},
			"/auth/login": map[string]any{
				"post": map[string]any{
					"summary": "Log in and obtain a bearer token",
					"tags":    []string{"Auth"},
					"requestBody": jsonBody(map[string]any{
						"type":     "object",
						"required": []string{"email", "password"},
						"properties": map[string]any{
							"email":    map[string]any{"type": "string", "format": "email"},
							"password": map[string]any{"type": "string"},
						},
					}),
					"responses": map[string]any{
						"200": response("Token", map[string]any{
							"type":       "object",
							"properties": map[string]any{"token": map[string]any{"type": "string"}},
						}),
						"400": response("Invalid credentials", errorRef),
					},
				},
			},
			"/auth/logout": map[string]any{
				"post": map[string]any{
					"summary":  "Revoke all previously issued tokens",
					"tags":     []string{"Auth"},
					"security": []map[string]any{{"bearerAuth": []any{}}},
					"responses": map[string]any{
						"200": response("Logged out", messageSchema),
						"401": response("Unauthorized", errorRef),
					},
				},
			},
			"/users": map[string]any{
				"get": map[string]any{
					"summary":  "Get all users",
					"tags":     []string{"Users"},
					"security": security,
					"responses": map[string]any{
						"200": response("Array of users", map[string]any{"type": "array", "items": userRef}),
						"401": response("Unauthorized", errorRef),
					},
				},
				"post": map[string]any{
					"summary":     "Create a new user",
					"tags":        []string{"Users"},
					"security":    security,
					"requestBody": jsonBody(map[string]any{"$ref": "#/components/schemas/UserWrite"}),
					"responses": map[string]any{
						"201": response("Created", nil),
						"400": response("Validation error", errorRef),
					},
				},
			},
			"/users/{id}": map[string]any{
				"get": map[string]any{
					"summary":    "Get a user by ID",
					"tags":       []string{"Users"},
					"security":   security,
					"parameters": idParam,
					"responses": map[string]any{
						"200": response("Found user", userRef),
						"400": response("Invalid ID format", errorRef),
						"404": response("Not found", errorRef),
					},
				},
				"put": map[string]any{
					"summary":     "Replace a user (full overwrite)",
					"tags":        []string{"Users"},
					"security":    security,
					"parameters":  idParam,
					"requestBody": jsonBody(map[string]any{"$ref": "#/components/schemas/UserWrite"}),
					"responses": map[string]any{
						"200": response("Updated user", userRef),
						"400": response("Validation error", errorRef),
						"404": response("Not found", errorRef),
					},
				},
				"patch": map[string]any{
					"summary":     "Update a user (partial)",
					"tags":        []string{"Users"},
					"security":    security,
					"parameters":  idParam,
					"requestBody": jsonBody(map[string]any{"$ref": "#/components/schemas/UserPatch"}),
					"responses": map[string]any{
						"200": response("Updated user", userRef),
						"404": response("Not found", errorRef),
					},
				},
				"delete": map[string]any{
					"summary":    "Delete a user by ID",
					"tags":       []string{"Users"},
					"security":   security,
					"parameters": idParam,
					"responses": map[string]any{
						"200": response("Delete result", messageSchema),
						"404": response("Not found", errorRef),
					},
				},
			},
			"/health": map[string]any{
				"get": map[string]any{
					"summary": "Liveness probe",
					"responses": map[string]any{
						"200": response("OK", map[string]any{
							"type":       "object",
							"properties": map[string]any{"ok": map[string]any{"type": "boolean"}},
						}),
					},
				},
			},
		},
	}
}

// Handler serves the OpenAPI document and its HTML viewer.
type Handler struct {
	doc map[string]any
}

func NewHandler(serverURL string) *Handler {
	return &Handler{doc: Document(serverURL)}
}

func (h *Handler) JSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.doc)
}

func (h *Handler) UI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(viewerHTML))
}
