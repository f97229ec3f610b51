// Package docs registers the Swagger document served on /swagger/*any. Keep it in
// step with the route annotations in internal/handlers.
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
        "/api/v1/charts/latest/{metric}": {
            "get": {
                "description": "Single-bar chart; no_data is set when the latest reading lacks the metric",
                "produces": ["application/json"],
                "tags": ["charts"],
                "summary": "Latest value of one metric",
                "parameters": [
                    {"enum": ["ldr", "vr", "temp", "distance"], "type": "string", "description": "Metric", "name": "metric", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/projection.Chart"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/charts/split": {
            "get": {
                "produces": ["application/json"],
                "tags": ["charts"],
                "summary": "Latest values split by metric",
                "parameters": [
                    {"type": "string", "example": "vr,temp", "description": "Comma-separated metrics", "name": "metrics", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/projection.Chart"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/charts/trend": {
            "get": {
                "produces": ["application/json"],
                "tags": ["charts"],
                "summary": "Metric trends over the history window",
                "parameters": [
                    {"type": "string", "example": "vr", "description": "Comma-separated metrics", "name": "metrics", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/projection.Chart"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/device": {
            "get": {
                "description": "Reconciled actuator state, including the pending command if any",
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Device status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DeviceStatus"}}
                }
            }
        },
        "/api/v1/device/commands": {
            "post": {
                "description": "Acceptance by the board makes the command pending; it is confirmed by a later status check",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Issue a device command",
                "parameters": [
                    {"description": "Command payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CommandRequest"}}
                ],
                "responses": {
                    "202": {"description": "status, device", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/device/reconcile": {
            "post": {
                "produces": ["application/json"],
                "tags": ["device"],
                "summary": "Reconcile device status now",
                "responses": {
                    "200": {"description": "status, device", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/export.csv": {
            "get": {
                "produces": ["text/csv"],
                "tags": ["dashboard"],
                "summary": "Readings as CSV",
                "parameters": [
                    {"enum": ["history", "latest"], "type": "string", "description": "Readings to export", "name": "source", "in": "query"},
                    {"type": "string", "description": "Comma-separated metrics", "name": "metrics", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/logs": {
            "get": {
                "description": "Filter command notices by date (RFC3339, 'YYYY-MM-DD HH:MM:SS', or 'YYYY-MM-DD'). If 'to' is date-only, it is treated as end-of-day inclusive (23:59:59.999999999Z).",
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "List command audit log",
                "parameters": [
                    {"type": "string", "example": "2025-08-01", "description": "Start of range", "name": "from", "in": "query"},
                    {"type": "string", "example": "2025-08-31", "description": "End of range. Date-only treated as end of day.", "name": "to", "in": "query"},
                    {"enum": ["ACCEPTED", "FAILED", "CONFIRMED", "UNCONFIRMED", "SUPERSEDED"], "type": "string", "description": "Notice kind", "name": "type", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "count, events", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/v1/snapshot": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Current view state",
                "responses": {
                    "200": {"description": "snapshot, device, poller", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/v1/table": {
            "get": {
                "produces": ["application/json"],
                "tags": ["dashboard"],
                "summary": "Readings as a table",
                "parameters": [
                    {"enum": ["history", "latest"], "type": "string", "description": "Readings to tabulate", "name": "source", "in": "query"},
                    {"type": "string", "description": "Comma-separated metrics", "name": "metrics", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/projection.Table"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "handlers.CommandRequest": {
            "type": "object",
            "required": ["command"],
            "properties": {
                "command": {"description": "Command token: OFF, <NAME>_ON or <NAME>_OFF", "type": "string", "example": "BUZZER_ON"}
            }
        },
        "models.DeviceStatus": {
            "type": "object",
            "properties": {
                "is_on": {"type": "boolean"},
                "pending": {"type": "string"},
                "unconfirmed": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "projection.Chart": {
            "type": "object",
            "properties": {
                "datasets": {"type": "array", "items": {"$ref": "#/definitions/projection.Dataset"}},
                "labels": {"type": "array", "items": {"type": "string"}},
                "message": {"type": "string"},
                "no_data": {"type": "boolean"},
                "title": {"type": "string"}
            }
        },
        "projection.Dataset": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"type": "number"}},
                "label": {"type": "string"},
                "metric": {"type": "string"},
                "no_data": {"type": "boolean"},
                "share": {"type": "number"}
            }
        },
        "projection.Table": {
            "type": "object",
            "properties": {
                "columns": {"type": "array", "items": {"type": "string"}},
                "rows": {"type": "array", "items": {"type": "array", "items": {"type": "string"}}}
            }
        }
    }
}`

// SwaggerInfo is the registered document; Host and Schemes may be set at startup.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sensor Dashboard API",
	Description:      "Synced telemetry projections and device command reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
