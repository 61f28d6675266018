package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Harada API",
        "description": "Goal-planning API: 9x9 charts, weekly review cycles and review exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication and session management"},
        {"name": "Charts", "description": "Chart and grid-cell management"},
        {"name": "Cycles", "description": "Weekly review cycle lifecycle"},
        {"name": "Actions", "description": "Sampled weekly action tracking"},
        {"name": "Exports", "description": "Asynchronous review exports"},
        {"name": "Metrics", "description": "Operational metrics"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Revoke the caller's refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/change-password": {
            "post": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Change the caller's password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ChangePasswordRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Wrong old password", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "security": [{"BearerAuth": []}],
                "summary": "Return the authenticated user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/charts/me": {
            "get": {
                "tags": ["Charts"],
                "security": [{"BearerAuth": []}],
                "summary": "Get the caller's chart with filled cells, creating it on first access",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/charts/{chartId}/cells": {
            "get": {
                "tags": ["Charts"],
                "security": [{"BearerAuth": []}],
                "summary": "List filled cells of a chart",
                "parameters": [
                    {"name": "chartId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Chart belongs to another user", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/charts/{chartId}/cells/{row}/{col}": {
            "put": {
                "tags": ["Charts"],
                "security": [{"BearerAuth": []}],
                "summary": "Fill or update a grid cell",
                "parameters": [
                    {"name": "chartId", "in": "path", "required": true, "type": "string"},
                    {"name": "row", "in": "path", "required": true, "type": "integer"},
                    {"name": "col", "in": "path", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateCellRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cell with derived type", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Coordinates out of range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Charts"],
                "security": [{"BearerAuth": []}],
                "summary": "Clear a grid cell",
                "parameters": [
                    {"name": "chartId", "in": "path", "required": true, "type": "string"},
                    {"name": "row", "in": "path", "required": true, "type": "integer"},
                    {"name": "col", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/charts/{chartId}/cycles/current": {
            "get": {
                "tags": ["Cycles"],
                "security": [{"BearerAuth": []}],
                "summary": "Get or create the cycle for the current calendar week",
                "parameters": [
                    {"name": "chartId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Current cycle", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/charts/{chartId}/cycles": {
            "get": {
                "tags": ["Cycles"],
                "security": [{"BearerAuth": []}],
                "summary": "List completed cycles, newest first",
                "parameters": [
                    {"name": "chartId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cycles/{cycleId}/start": {
            "post": {
                "tags": ["Cycles"],
                "security": [{"BearerAuth": []}],
                "summary": "Start a planned cycle with a start journal",
                "parameters": [
                    {"name": "cycleId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StartCycleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Cycle in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Chart has no action cells", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cycle already started or completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cycles/{cycleId}/complete": {
            "post": {
                "tags": ["Cycles"],
                "security": [{"BearerAuth": []}],
                "summary": "Complete a started cycle with an end review",
                "parameters": [
                    {"name": "cycleId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CompleteCycleRequest"}}
                ],
                "responses": {
                    "200": {"description": "Completed cycle", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cycle not in progress", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cycles/{cycleId}/actions": {
            "get": {
                "tags": ["Actions"],
                "security": [{"BearerAuth": []}],
                "summary": "List the cycle's sampled actions with their source cells",
                "parameters": [
                    {"name": "cycleId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actions/{actionId}/status": {
            "patch": {
                "tags": ["Actions"],
                "security": [{"BearerAuth": []}],
                "summary": "Update an action's completion status",
                "parameters": [
                    {"name": "actionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateActionStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated action", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Cycle already completed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actions/{actionId}/score": {
            "patch": {
                "tags": ["Actions"],
                "security": [{"BearerAuth": []}],
                "summary": "Score an action from 0 to 5",
                "parameters": [
                    {"name": "actionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateActionScoreRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated action", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/actions/{actionId}/notes": {
            "patch": {
                "tags": ["Actions"],
                "security": [{"BearerAuth": []}],
                "summary": "Attach notes to an action",
                "parameters": [
                    {"name": "actionId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateActionNotesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated action", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "security": [{"BearerAuth": []}],
                "summary": "Queue an export job",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": ["Exports"],
                "security": [{"BearerAuth": []}],
                "summary": "Get export job status",
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export by signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/metrics/summary": {
            "get": {
                "tags": ["Metrics"],
                "security": [{"BearerAuth": []}],
                "summary": "Runtime metrics snapshot (admin only)",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "ChangePasswordRequest": {
            "type": "object",
            "properties": {
                "old_password": {"type": "string"},
                "new_password": {"type": "string"}
            },
            "required": ["old_password", "new_password"]
        },
        "UpdateCellRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            }
        },
        "StartCycleRequest": {
            "type": "object",
            "properties": {
                "start_journal": {"type": "string"}
            },
            "required": ["start_journal"]
        },
        "CompleteCycleRequest": {
            "type": "object",
            "properties": {
                "end_review": {"type": "string"}
            },
            "required": ["end_review"]
        },
        "UpdateActionStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["not_started", "in_progress", "completed", "skipped", "partial"]}
            },
            "required": ["status"]
        },
        "UpdateActionScoreRequest": {
            "type": "object",
            "properties": {
                "score": {"type": "integer", "minimum": 0, "maximum": 5}
            },
            "required": ["score"]
        },
        "UpdateActionNotesRequest": {
            "type": "object",
            "properties": {
                "notes": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "chart_id": {"type": "string"},
                "cycle_id": {"type": "string"},
                "type": {"type": "string", "enum": ["history", "weekly_review"]},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["chart_id", "type", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
