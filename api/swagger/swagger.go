package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduVita API",
        "description": "Timetable generation, exam seating, accounts and the timed coding test",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Authentication", "description": "Password, OTP registration and social sign-in"},
        {"name": "Users", "description": "Account administration"},
        {"name": "Timetables", "description": "Weekly timetable generation and storage"},
        {"name": "Seating", "description": "Exam seat allocation and seat charts"},
        {"name": "Files", "description": "Signed downloads"},
        {"name": "Coding Test", "description": "Timed coding test sessions"},
        {"name": "Dashboard", "description": "Admin summaries"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "Tokens issued, token cookie set", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/register/otp": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Mail a registration code",
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"type": "object", "properties": {"email": {"type": "string"}}}}],
                "responses": {
                    "202": {"description": "Code sent"},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register with a verification code",
                "responses": {
                    "201": {"description": "Account created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid or expired code"}
                }
            }
        },
        "/auth/refresh": {
            "post": {"tags": ["Authentication"], "summary": "Rotate refresh token", "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid refresh token"}}}
        },
        "/auth/logout": {
            "post": {"tags": ["Authentication"], "summary": "Revoke refresh token", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Logged out"}}}
        },
        "/auth/change-password": {
            "post": {"tags": ["Authentication"], "summary": "Change password", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "Changed"}}}
        },
        "/auth/me": {
            "get": {"tags": ["Authentication"], "summary": "Current user", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/auth/oauth/{provider}": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Social sign-in URL",
                "parameters": [{"in": "path", "name": "provider", "required": true, "type": "string", "enum": ["google", "github"]}],
                "responses": {"200": {"description": "Consent URL"}, "400": {"description": "Unsupported provider"}}
            }
        },
        "/auth/oauth/{provider}/callback": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Social sign-in callback",
                "parameters": [
                    {"in": "path", "name": "provider", "required": true, "type": "string"},
                    {"in": "query", "name": "code", "type": "string"},
                    {"in": "query", "name": "state", "type": "string"}
                ],
                "responses": {"302": {"description": "Redirect to the dashboard or /login?error=reason"}}
            }
        },
        "/users": {
            "get": {"tags": ["Users"], "summary": "List users", "parameters": [{"in": "query", "name": "role", "type": "string"}, {"in": "query", "name": "active", "type": "boolean"}, {"in": "query", "name": "skill", "type": "string"}, {"in": "query", "name": "search", "type": "string"}, {"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "page_size", "type": "integer"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Users"], "summary": "Create user", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/users/{id}": {
            "get": {"tags": ["Users"], "summary": "Get user", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "put": {"tags": ["Users"], "summary": "Update user", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["Users"], "summary": "Deactivate user", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"204": {"description": "Deactivated"}}}
        },
        "/timetables/catalog": {
            "get": {"tags": ["Timetables"], "summary": "Departments, weekdays and default pairs", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/timetables/preview": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate without storing",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "INVALID_TIME_RANGE or EMPTY_SELECTION"}}
            }
        },
        "/timetables": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List timetables newest first",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "query", "name": "department", "type": "string"}, {"in": "query", "name": "page", "type": "integer"}, {"in": "query", "name": "page_size", "type": "integer"}],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate and store",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/timetables/{id}": {
            "get": {"tags": ["Timetables"], "summary": "Get timetable", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "delete": {"tags": ["Timetables"], "summary": "Delete timetable", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/timetables/{id}/pdf": {
            "get": {"tags": ["Timetables"], "summary": "Download as PDF", "produces": ["application/pdf"], "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"200": {"description": "PDF file"}}}
        },
        "/seating/allocate": {
            "post": {
                "tags": ["Seating"],
                "summary": "Preview seat allocation",
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/AllocateSeatsRequest"}}],
                "responses": {"200": {"description": "OK"}, "422": {"description": "CAPACITY_EXCEEDED"}}
            }
        },
        "/seating/charts": {
            "get": {"tags": ["Seating"], "summary": "List seat charts", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Seating"], "summary": "Allocate, render and store a chart", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created with signed download URL"}}}
        },
        "/seating/charts/upload": {
            "post": {
                "tags": ["Seating"],
                "summary": "Upload a rendered PDF chart",
                "consumes": ["multipart/form-data"],
                "security": [{"BearerAuth": []}],
                "parameters": [{"in": "formData", "name": "file", "required": true, "type": "file"}],
                "responses": {"201": {"description": "Stored"}, "400": {"description": "Not a PDF or too large"}}
            }
        },
        "/seating/charts/{id}": {
            "delete": {"tags": ["Seating"], "summary": "Delete seat chart", "security": [{"BearerAuth": []}], "parameters": [{"in": "path", "name": "id", "required": true, "type": "string"}], "responses": {"204": {"description": "Deleted"}}}
        },
        "/files/{token}": {
            "get": {"tags": ["Files"], "summary": "Download by signed token", "parameters": [{"in": "path", "name": "token", "required": true, "type": "string"}], "responses": {"200": {"description": "File"}, "403": {"description": "Invalid or expired link"}}}
        },
        "/tests/status": {"get": {"tags": ["Coding Test"], "summary": "Session status", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/tests/start": {"post": {"tags": ["Coding Test"], "summary": "Start the test", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "409": {"description": "TEST_LOCKED"}}}},
        "/tests/run": {"post": {"tags": ["Coding Test"], "summary": "Run code", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "Output"}, "502": {"description": "Execution engine failed"}}}},
        "/tests/submissions": {"post": {"tags": ["Coding Test"], "summary": "Submit answer", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Accepted"}, "409": {"description": "TEST_LOCKED"}}}},
        "/tests/reattempt": {"post": {"tags": ["Coding Test"], "summary": "Reattempt", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/tests/complete": {"post": {"tags": ["Coding Test"], "summary": "Finish", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/tests/disqualify": {"post": {"tags": ["Coding Test"], "summary": "Disqualify", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/submissions": {"get": {"tags": ["Coding Test"], "summary": "List submissions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/questions": {
            "get": {"tags": ["Coding Test"], "summary": "List questions", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["Coding Test"], "summary": "Create question", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/admin/dashboard": {"get": {"tags": ["Dashboard"], "summary": "Admin summary", "parameters": [{"name": "refresh", "in": "query", "type": "boolean"}], "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/metrics": {"get": {"tags": ["Dashboard"], "summary": "Metrics snapshot", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}}
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "required": ["department", "periods", "startTime", "endTime", "breakStart", "breakEnd"],
            "properties": {
                "department": {"type": "string"},
                "days": {"type": "array", "items": {"type": "string"}},
                "periods": {"type": "integer"},
                "startTime": {"type": "string", "example": "08:00"},
                "endTime": {"type": "string", "example": "14:00"},
                "breakStart": {"type": "string", "example": "10:00"},
                "breakEnd": {"type": "string", "example": "10:30"},
                "pairs": {"type": "array", "items": {"$ref": "#/definitions/Pair"}},
                "randomize": {"type": "boolean"},
                "seed": {"type": "integer"}
            }
        },
        "Pair": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "teacher": {"type": "string"}
            }
        },
        "AllocateSeatsRequest": {
            "type": "object",
            "properties": {
                "floors": {"type": "integer"},
                "roomsPerFloor": {"type": "integer"},
                "seatsPerRoom": {"type": "integer"},
                "departments": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "department": {"type": "string"},
                            "students": {"type": "integer"}
                        }
                    }
                }
            }
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
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
