package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Class Matrix API",
        "description": "Class/timeslot scheduling matrix and effective-access resolution engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Matrix", "description": "Scheduling grid and cell mutations"},
        {"name": "Curriculum", "description": "Curriculum mapping resolution"},
        {"name": "Access", "description": "Class access assignment administration"}
    ],
    "paths": {
        "/matrix/grid": {
            "get": {
                "tags": ["Matrix"],
                "summary": "Assemble the caller's scheduling grid for a year",
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/grid/export": {
            "get": {
                "tags": ["Matrix"],
                "summary": "Export the caller's grid as CSV or PDF",
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/matrix/curriculum": {
            "get": {
                "tags": ["Curriculum"],
                "summary": "Resolve the curriculum assignment for a class and year",
                "parameters": [
                    {"name": "class", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/cells/{id}": {
            "get": {
                "tags": ["Matrix"],
                "summary": "Fetch one cell with its item and share sets",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/cells/{id}/items": {
            "post": {
                "tags": ["Matrix"],
                "summary": "Attach an assessment item to a cell",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttachItemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/cells/{id}/items/{itemId}": {
            "delete": {
                "tags": ["Matrix"],
                "summary": "Detach an assessment item from a cell",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "itemId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/cells/{id}/schedule": {
            "post": {
                "tags": ["Matrix"],
                "summary": "Partially update a cell's schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/cells/{id}/status": {
            "post": {
                "tags": ["Matrix"],
                "summary": "Apply an explicit lifecycle action to a cell",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/cells/{id}/clone": {
            "post": {
                "tags": ["Matrix"],
                "summary": "Propagate a cell's content to other coordinates",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CloneRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/matrix/bulk-assign": {
            "post": {
                "tags": ["Matrix"],
                "summary": "Attach items to cells in bulk, best effort",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkAssignRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Nothing assigned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/curriculum/mappings": {
            "post": {
                "tags": ["Curriculum"],
                "summary": "Create or replace a curriculum mapping row",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertCurriculumMappingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/access/assignments": {
            "get": {
                "tags": ["Access"],
                "summary": "List access assignment rows, including revoked history",
                "parameters": [
                    {"name": "teacher_id", "in": "query", "type": "string"},
                    {"name": "class", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Access"],
                "summary": "Grant or replace a teacher's base access to a class",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertAccessAssignmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/access/assignments/{id}": {
            "delete": {
                "tags": ["Access"],
                "summary": "Revoke an access assignment, keeping it as history",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AttachItemRequest": {
            "type": "object",
            "properties": {
                "itemId": {"type": "string"}
            },
            "required": ["itemId"]
        },
        "UpdateScheduleRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "format": "date"},
                "start_time": {"type": "string"},
                "end_time": {"type": "string"}
            }
        },
        "SetStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["IN_PROGRESS", "COMPLETED", "DRAFT"]}
            },
            "required": ["status"]
        },
        "CloneTarget": {
            "type": "object",
            "properties": {
                "class": {"type": "string"},
                "period_type": {"type": "string", "enum": ["MONTHLY", "QUARTERLY"]},
                "period_value": {"type": "string"}
            },
            "required": ["class", "period_type", "period_value"]
        },
        "CloneRequest": {
            "type": "object",
            "properties": {
                "targets": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/CloneTarget"}
                }
            },
            "required": ["targets"]
        },
        "BulkAssignRequest": {
            "type": "object",
            "properties": {
                "item_ids": {"type": "array", "items": {"type": "string"}},
                "cell_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["item_ids", "cell_ids"]
        },
        "UpsertCurriculumMappingRequest": {
            "type": "object",
            "properties": {
                "class_code": {"type": "string"},
                "academic_year": {"type": "string"},
                "priority": {"type": "integer", "minimum": 1},
                "curriculum_level": {"type": "string"},
                "active": {"type": "boolean"}
            },
            "required": ["class_code", "academic_year", "priority", "curriculum_level"]
        },
        "UpsertAccessAssignmentRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "class_code": {"type": "string"},
                "access_level": {"type": "string", "enum": ["VIEW", "FULL", "CO_TEACHER", "NONE"]}
            },
            "required": ["teacher_id", "class_code", "access_level"]
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
