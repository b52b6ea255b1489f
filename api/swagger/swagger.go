package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "DocLife API",
        "description": "Document and consent lifecycle engine for the ListHaven marketplace",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "Artifacts", "description": "Submission, approval and lifecycle of legal documents"},
        {"name": "Listings", "description": "Listing/consent linkage and publication eligibility"},
        {"name": "Renewals", "description": "Renewal sweep operations"},
        {"name": "Exports", "description": "Document register exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Get current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "List artifacts with derived status",
                "parameters": [
                    {"name": "ownerId", "in": "query", "type": "string"},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "subject", "in": "query", "type": "string"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "offset", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Artifacts"],
                "summary": "Submit a new artifact",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitArtifactRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Get one artifact with derived status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}/status": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Get the derived lifecycle status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}/decision": {
            "post": {
                "tags": ["Artifacts"],
                "summary": "Record a reviewer decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecideArtifactRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}/withdraw": {
            "post": {
                "tags": ["Artifacts"],
                "summary": "Withdraw a pending artifact",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already decided", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}/renew": {
            "post": {
                "tags": ["Artifacts"],
                "summary": "Submit a successor for an approved artifact",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RenewArtifactRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/artifacts/{id}/content": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Issue a signed download token",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/uploads": {
            "post": {
                "tags": ["Artifacts"],
                "summary": "Upload an artifact binary",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Artifacts"],
                "summary": "Download an artifact binary by signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Invalid token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/listings/{id}/consents": {
            "post": {
                "tags": ["Listings"],
                "summary": "Attach a consent to a listing",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LinkListingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Consent not usable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/listings/{id}/consents/{consentId}": {
            "delete": {
                "tags": ["Listings"],
                "summary": "Detach a consent from a listing",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "consentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/listings/{id}/eligibility": {
            "get": {
                "tags": ["Listings"],
                "summary": "Check whether a listing may be published",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/consents/{id}/usage": {
            "get": {
                "tags": ["Listings"],
                "summary": "Count listings relying on a consent",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/renewals/sweep": {
            "post": {
                "tags": ["Renewals"],
                "summary": "Run a renewal sweep now",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/SweepRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/register": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the document register",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]},
                    {"name": "kind", "in": "query", "type": "string"},
                    {"name": "ownerId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File download"}
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
        "SubmitArtifactRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["NDA", "CONSENT", "PROPERTY_DOCUMENT"]},
                "ownerId": {"type": "string"},
                "subjectName": {"type": "string"},
                "subjectContact": {"type": "string"},
                "storageRef": {"type": "string"}
            },
            "required": ["kind", "ownerId", "storageRef"]
        },
        "DecideArtifactRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["APPROVED", "REJECTED"]},
                "note": {"type": "string"}
            },
            "required": ["decision"]
        },
        "RenewArtifactRequest": {
            "type": "object",
            "properties": {
                "storageRef": {"type": "string"}
            },
            "required": ["storageRef"]
        },
        "LinkListingRequest": {
            "type": "object",
            "properties": {
                "consentId": {"type": "string"}
            },
            "required": ["consentId"]
        },
        "SweepRequest": {
            "type": "object",
            "properties": {
                "now": {"type": "string", "format": "date-time"}
            }
        },
        "Artifact": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "kind": {"type": "string"},
                "owner_id": {"type": "string"},
                "subject_name": {"type": "string"},
                "storage_ref": {"type": "string"},
                "approval_state": {"type": "string"},
                "approved_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "previous_artifact_id": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "ArtifactStatusResponse": {
            "type": "object",
            "properties": {
                "artifactId": {"type": "string"},
                "kind": {"type": "string"},
                "approvalState": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "REJECTED", "ACTIVE", "EXPIRING_SOON", "EXPIRED", "NOT_APPLICABLE"]},
                "daysUntilExpiration": {"type": "integer"},
                "expiresAt": {"type": "string"},
                "evaluatedAt": {"type": "string"}
            }
        },
        "SweepReport": {
            "type": "object",
            "properties": {
                "startedAt": {"type": "string"},
                "finishedAt": {"type": "string"},
                "scanned": {"type": "integer"},
                "due": {"type": "integer"},
                "failures": {"type": "array", "items": {"type": "object"}}
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
