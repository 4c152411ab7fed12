package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Plan API",
        "description": "Study-plan scheduling and placement engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Operator authentication"},
        {"name": "Plans", "description": "Plan generation and retrieval"},
        {"name": "Schedule", "description": "Schedule preview"},
        {"name": "Exports", "description": "Plan export downloads"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/plan-groups/{id}/plans": {
            "get": {
                "tags": ["Plans"],
                "summary": "List active plans",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "type": "string"},
                    {"name": "to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Plans"],
                "summary": "Generate and persist plans",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlansRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "423": {"description": "Plan group locked by another run"}
                }
            }
        },
        "/plan-groups/{id}/plans/preview": {
            "post": {
                "tags": ["Plans"],
                "summary": "Preview a generation run without persisting",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlansRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan-groups/{id}/plans/async": {
            "post": {
                "tags": ["Plans"],
                "summary": "Enqueue a generation run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GeneratePlansRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan-groups/{id}/schedule/preview": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Preview the calculated schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulePreviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan-groups/{id}/docked": {
            "get": {
                "tags": ["Plans"],
                "summary": "List docked contents from the latest run",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan-groups/{id}/export": {
            "post": {
                "tags": ["Exports"],
                "summary": "Export active plans as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportPlansRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an export by signed token",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
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
        "GeneratePlansRequest": {
            "type": "object",
            "properties": {
                "proposalId": {"type": "string"},
                "contents": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ContentRef"}
                },
                "weeklyBlocks": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/WeeklyBlockRequest"}
                },
                "exclusions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ExclusionRequest"}
                },
                "academyCommitments": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AcademyCommitmentRequest"}
                },
                "placementStrategy": {"type": "string", "enum": ["first_fit", "best_fit", "spread"]},
                "allocationStrategy": {"type": "string", "enum": ["risk_based", "balanced", "volume_based"]},
                "regenerate": {"type": "boolean"}
            }
        },
        "SchedulePreviewRequest": {
            "type": "object",
            "properties": {
                "weeklyBlocks": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/WeeklyBlockRequest"}
                },
                "exclusions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ExclusionRequest"}
                },
                "academyCommitments": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/AcademyCommitmentRequest"}
                }
            }
        },
        "ExportPlansRequest": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["format"]
        },
        "ContentRef": {
            "type": "object",
            "properties": {
                "contentId": {"type": "string"},
                "type": {"type": "string", "enum": ["book", "lecture", "custom"]}
            },
            "required": ["contentId", "type"]
        },
        "WeeklyBlockRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "slotType": {"type": "string", "enum": ["study", "self_study"]}
            },
            "required": ["dayOfWeek", "start", "end", "slotType"]
        },
        "ExclusionRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "type": {"type": "string"},
                "reason": {"type": "string"}
            },
            "required": ["date", "type"]
        },
        "AcademyCommitmentRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "travelTimeMinutes": {"type": "integer"},
                "academyName": {"type": "string"}
            },
            "required": ["dayOfWeek", "start", "end"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
                "warnings": {
                    "type": "array",
                    "items": {"type": "string"}
                },
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
