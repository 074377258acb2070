package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Grading API",
        "description": "Grading systems, grade bands and student evaluation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Grading Systems", "description": "Grading system and grade band authoring"},
        {"name": "Grading", "description": "Score grading, student evaluation and ranking"},
        {"name": "Institutions", "description": "Per-institution grading system selection"}
    ],
    "paths": {
        "/grading-systems": {
            "get": {
                "tags": ["Grading Systems"],
                "summary": "List grading systems",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["primary", "secondary_jce", "secondary_msce", "international", "higher_education"]},
                    {"name": "active", "in": "query", "type": "boolean"},
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Grading Systems"],
                "summary": "Create grading system",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGradingSystemRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid payload or bands", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Code already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-systems/defaults/{institutionType}": {
            "get": {
                "tags": ["Grading Systems"],
                "summary": "Default grading system for an institution type",
                "parameters": [
                    {"name": "institutionType", "in": "path", "required": true, "type": "string", "enum": ["primary", "secondary", "international"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No default available", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-systems/{id}": {
            "get": {
                "tags": ["Grading Systems"],
                "summary": "Get grading system with bands",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Grading Systems"],
                "summary": "Update grading system",
                "description": "Replaces fields and bands. version must match the stored version; locked systems are rejected.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateGradingSystemRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Locked or version conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-systems/{id}/activate": {
            "post": {
                "tags": ["Grading Systems"],
                "summary": "Activate or deactivate grading system",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"active": {"type": "boolean"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading-systems/{id}/validate": {
            "post": {
                "tags": ["Grading Systems"],
                "summary": "Check grade bands for gaps and overlaps",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Validation report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/institutions/{id}/grading-config/{level}": {
            "get": {
                "tags": ["Institutions"],
                "summary": "Effective grading system for an institution level",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "level", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "type": "string", "enum": ["primary", "secondary", "international"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Institutions"],
                "summary": "Choose the grading system for an institution level",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "level", "in": "path", "required": true, "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object", "properties": {"grading_system_id": {"type": "string"}, "is_active": {"type": "boolean"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Grading system inactive", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading/grade": {
            "post": {
                "tags": ["Grading"],
                "summary": "Grade scores",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GradeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading/evaluate": {
            "post": {
                "tags": ["Grading"],
                "summary": "Evaluate one student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EvaluateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading/evaluate/batch": {
            "post": {
                "tags": ["Grading"],
                "summary": "Evaluate many students",
                "description": "Failed records carry their own error; successful records are positioned by average.",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BatchEvaluateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading/rank": {
            "post": {
                "tags": ["Grading"],
                "summary": "Rank scores",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RankRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/grading/gpa": {
            "post": {
                "tags": ["Grading"],
                "summary": "GPA and average of scores",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GPARequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SystemSelector": {
            "type": "object",
            "properties": {
                "grading_system_id": {"type": "string"},
                "grading_system_code": {"type": "string"},
                "institution_id": {"type": "string"},
                "level": {"type": "string"},
                "institution_type": {"type": "string", "enum": ["primary", "secondary", "international"]}
            }
        },
        "GradeBand": {
            "type": "object",
            "required": ["grade", "min_score", "max_score"],
            "properties": {
                "grade": {"type": "string"},
                "grade_label": {"type": "string"},
                "min_score": {"type": "number"},
                "max_score": {"type": "number"},
                "gpa_points": {"type": "number"},
                "points": {"type": "integer"},
                "remark": {"type": "string"},
                "is_passing": {"type": "boolean"},
                "sort_order": {"type": "integer"}
            }
        },
        "GradingSystemFields": {
            "type": "object",
            "required": ["name", "type", "scale_type", "max_score", "pass_mark", "min_subjects_to_pass", "bands"],
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "type": {"type": "string", "enum": ["primary", "secondary_jce", "secondary_msce", "international", "higher_education"]},
                "scale_type": {"type": "string", "enum": ["percentage", "numeric", "letter", "gpa", "points"]},
                "min_score": {"type": "number"},
                "max_score": {"type": "number"},
                "pass_mark": {"type": "number"},
                "min_subjects_to_pass": {"type": "integer"},
                "priority_subjects": {"type": "array", "items": {"type": "string"}},
                "certification_rules": {"type": "object"},
                "progression_rules": {"type": "object"},
                "settings": {"type": "object"},
                "bands": {"type": "array", "items": {"$ref": "#/definitions/GradeBand"}}
            }
        },
        "CreateGradingSystemRequest": {
            "allOf": [
                {"$ref": "#/definitions/GradingSystemFields"},
                {"type": "object", "required": ["code"], "properties": {"code": {"type": "string"}}}
            ]
        },
        "UpdateGradingSystemRequest": {
            "allOf": [
                {"$ref": "#/definitions/GradingSystemFields"},
                {"type": "object", "required": ["version"], "properties": {"version": {"type": "integer"}}}
            ]
        },
        "AssessmentScore": {
            "type": "object",
            "properties": {
                "continuous_assessment": {"type": "number"},
                "exam": {"type": "number"}
            }
        },
        "GradeRequest": {
            "allOf": [
                {"$ref": "#/definitions/SystemSelector"},
                {"type": "object", "properties": {
                    "subject_code": {"type": "string"},
                    "scores": {"type": "array", "items": {"type": "number"}}
                }}
            ]
        },
        "EvaluateRequest": {
            "allOf": [
                {"$ref": "#/definitions/SystemSelector"},
                {"type": "object", "properties": {
                    "subject_scores": {"type": "object", "additionalProperties": {"type": "number"}},
                    "assessments": {"type": "object", "additionalProperties": {"$ref": "#/definitions/AssessmentScore"}}
                }}
            ]
        },
        "BatchEvaluateRequest": {
            "allOf": [
                {"$ref": "#/definitions/SystemSelector"},
                {"type": "object", "properties": {
                    "students": {"type": "array", "items": {"type": "object", "properties": {
                        "student_id": {"type": "string"},
                        "subject_scores": {"type": "object", "additionalProperties": {"type": "number"}},
                        "assessments": {"type": "object", "additionalProperties": {"$ref": "#/definitions/AssessmentScore"}}
                    }}}
                }}
            ]
        },
        "RankRequest": {
            "allOf": [
                {"$ref": "#/definitions/SystemSelector"},
                {"type": "object", "properties": {
                    "scores": {"type": "object", "additionalProperties": {"type": "number"}}
                }}
            ]
        },
        "GPARequest": {
            "allOf": [
                {"$ref": "#/definitions/SystemSelector"},
                {"type": "object", "properties": {
                    "scores": {"type": "array", "items": {"type": "number"}}
                }}
            ]
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
