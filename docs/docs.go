// Package docs holds the OpenAPI description served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "API Support"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/auth/register": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Register a new user",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.RegisterRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/model.AuthResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "User login",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.LoginRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.AuthResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				}
			}
		},
		"/auth/profile": {
			"get": {
				"tags": [
					"Authentication"
				],
				"summary": "Get user profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.User"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/auth/api-key/regenerate": {
			"post": {
				"tags": [
					"Authentication"
				],
				"summary": "Regenerate API key",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.APIKeyResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/health": {
			"get": {
				"tags": [
					"System"
				],
				"summary": "Health check",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/sites": {
			"get": {
				"tags": [
					"Jobs"
				],
				"summary": "Supported sites",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/api.SiteInfo"
							}
						}
					}
				}
			}
		},
		"/jobs/extract": {
			"post": {
				"tags": [
					"Jobs"
				],
				"summary": "Import a job from a posting URL",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.ExtractJobRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/model.JobRecord"
						}
					},
					"400": {
						"description": "Invalid URL",
						"schema": {
							"$ref": "#/definitions/api.ExtractionErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"422": {
						"description": "Blocked or unreadable",
						"schema": {
							"$ref": "#/definitions/api.ExtractionErrorResponse"
						}
					},
					"502": {
						"description": "Proxy failure",
						"schema": {
							"$ref": "#/definitions/api.ExtractionErrorResponse"
						}
					},
					"504": {
						"description": "Proxy timeout",
						"schema": {
							"$ref": "#/definitions/api.ExtractionErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/jobs/preview": {
			"post": {
				"tags": [
					"Jobs"
				],
				"summary": "Preview extraction of a posting URL",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.ExtractJobRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.JobRecord"
						}
					},
					"422": {
						"description": "Blocked or unreadable",
						"schema": {
							"$ref": "#/definitions/api.ExtractionErrorResponse"
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/jobs": {
			"get": {
				"tags": [
					"Jobs"
				],
				"summary": "List tracked jobs",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "status",
						"in": "query"
					},
					{
						"type": "boolean",
						"name": "remote",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"default": 50
					},
					{
						"type": "integer",
						"name": "offset",
						"in": "query",
						"default": 0
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"Jobs"
				],
				"summary": "Add a job manually",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.CreateJobRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/model.JobRecord"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/jobs/stats": {
			"get": {
				"tags": [
					"Jobs"
				],
				"summary": "Tracker statistics",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/jobs/{id}": {
			"get": {
				"tags": [
					"Jobs"
				],
				"summary": "Get a tracked job",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.JobRecord"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			},
			"patch": {
				"tags": [
					"Jobs"
				],
				"summary": "Update a tracked job",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.UpdateJobRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.JobRecord"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"Jobs"
				],
				"summary": "Delete a tracked job",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/imports": {
			"get": {
				"tags": [
					"Imports"
				],
				"summary": "List import tasks",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"default": 50
					},
					{
						"type": "integer",
						"name": "offset",
						"in": "query",
						"default": 0
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			},
			"post": {
				"tags": [
					"Imports"
				],
				"summary": "Create an import task",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.CreateImportTaskRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/model.ImportTask"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/imports/{id}": {
			"get": {
				"tags": [
					"Imports"
				],
				"summary": "Get an import task",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.ImportTask"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			},
			"put": {
				"tags": [
					"Imports"
				],
				"summary": "Update an import task",
				"produces": [
					"application/json"
				],
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/model.UpdateImportTaskRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.ImportTask"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			},
			"delete": {
				"tags": [
					"Imports"
				],
				"summary": "Delete an import task",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/imports/{id}/run": {
			"post": {
				"tags": [
					"Imports"
				],
				"summary": "Run an import task now",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.Execution"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/imports/{id}/executions": {
			"get": {
				"tags": [
					"Imports"
				],
				"summary": "List executions of an import task",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query",
						"default": 20
					},
					{
						"type": "integer",
						"name": "offset",
						"in": "query",
						"default": 0
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		},
		"/imports/{id}/executions/{execId}": {
			"get": {
				"tags": [
					"Imports"
				],
				"summary": "Get execution details",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "id",
						"in": "path",
						"required": true,
						"description": "ID"
					},
					{
						"type": "string",
						"name": "execId",
						"in": "path",
						"required": true,
						"description": "Execution ID"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/model.Execution"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"type": "object",
							"additionalProperties": {
								"type": "string"
							}
						}
					}
				},
				"security": [
					{
						"BearerAuth": []
					},
					{
						"ApiKeyAuth": []
					}
				]
			}
		}
	},
	"definitions": {
		"api.ExtractionErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				},
				"manual_entry": {
					"type": "boolean"
				}
			}
		},
		"api.SiteInfo": {
			"type": "object",
			"properties": {
				"family": {
					"type": "string"
				},
				"label": {
					"type": "string"
				},
				"domains": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"manual_entry_hint": {
					"type": "boolean"
				}
			}
		},
		"model.RegisterRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"name": {
					"type": "string"
				}
			}
		},
		"model.LoginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"model.AuthResponse": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"expires_at": {
					"type": "integer"
				},
				"user": {
					"$ref": "#/definitions/model.User"
				}
			}
		},
		"model.APIKeyResponse": {
			"type": "object",
			"properties": {
				"api_key": {
					"type": "string"
				}
			}
		},
		"model.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"is_active": {
					"type": "boolean"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"model.ExtractJobRequest": {
			"type": "object",
			"properties": {
				"url": {
					"type": "string"
				}
			}
		},
		"model.CreateJobRequest": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"company": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"source_url": {
					"type": "string"
				},
				"platform": {
					"type": "string"
				},
				"salary": {
					"type": "number"
				},
				"applicants": {
					"type": "integer"
				},
				"status": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"model.UpdateJobRequest": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string"
				},
				"notes": {
					"type": "string"
				}
			}
		},
		"model.JobRecord": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"user_id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"company": {
					"type": "string"
				},
				"location": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"extracted_skills": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"source_url": {
					"type": "string"
				},
				"platform": {
					"type": "string"
				},
				"is_remote": {
					"type": "boolean"
				},
				"salary": {
					"type": "number"
				},
				"applicants": {
					"type": "integer"
				},
				"status": {
					"type": "string"
				},
				"description_length": {
					"type": "integer"
				},
				"skills_count": {
					"type": "integer"
				},
				"notes": {
					"type": "string"
				},
				"views": {
					"type": "integer"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"model.CreateImportTaskRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"schedule": {
					"type": "string"
				},
				"urls": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"exclude_keywords": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"webhook_url": {
					"type": "string"
				}
			}
		},
		"model.UpdateImportTaskRequest": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"schedule": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"urls": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"exclude_keywords": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"webhook_url": {
					"type": "string"
				}
			}
		},
		"model.ImportTask": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"schedule": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"urls": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"exclude_keywords": {
					"type": "array",
					"items": {
						"type": "string"
					}
				},
				"last_run_at": {
					"type": "string"
				},
				"next_run_at": {
					"type": "string"
				},
				"created_by": {
					"type": "string"
				},
				"created_at": {
					"type": "string"
				},
				"updated_at": {
					"type": "string"
				}
			}
		},
		"model.StepResult": {
			"type": "object",
			"properties": {
				"url": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"job_id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"reason": {
					"type": "string"
				},
				"manual_entry": {
					"type": "boolean"
				},
				"started_at": {
					"type": "string"
				},
				"finished_at": {
					"type": "string"
				},
				"error": {
					"type": "string"
				}
			}
		},
		"model.Execution": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"task_id": {
					"type": "string"
				},
				"task_name": {
					"type": "string"
				},
				"status": {
					"type": "string"
				},
				"started_at": {
					"type": "string"
				},
				"finished_at": {
					"type": "string"
				},
				"duration_ms": {
					"type": "integer"
				},
				"imported": {
					"type": "integer"
				},
				"step_results": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/model.StepResult"
					}
				},
				"error": {
					"type": "string"
				},
				"triggered_by": {
					"type": "string"
				}
			}
		}
	},
	"securityDefinitions": {
		"ApiKeyAuth": {
			"description": "Enter your API key",
			"type": "apiKey",
			"name": "X-API-Key",
			"in": "header"
		},
		"BearerAuth": {
			"description": "Enter your JWT token with the Bearer prefix",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Requill Tracker API",
	Description:      "Job application tracker: import postings from job-board URLs, track application status and schedule bulk imports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
