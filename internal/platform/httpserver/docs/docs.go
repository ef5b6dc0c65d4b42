// Package docs registers the OpenAPI document served under /swagger/.
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
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "security": [
        {
            "BearerAuth": []
        }
    ],
    "paths": {
        "/v1/prizes": {
            "post": {
                "summary": "Create a prize",
                "tags": [
                    "prizes"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "header",
                        "name": "Idempotency-Key",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.CreatePrizeRequest"
                        }
                    }
                ]
            },
            "get": {
                "summary": "List prizes",
                "tags": [
                    "prizes"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "organizer",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "phase",
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}": {
            "get": {
                "summary": "Get a prize",
                "tags": [
                    "prizes"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/activity": {
            "get": {
                "summary": "List prize activity",
                "tags": [
                    "prizes"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/strategy": {
            "get": {
                "summary": "Bound allocation strategy",
                "tags": [
                    "allocation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/allocation-preview": {
            "get": {
                "summary": "Preview reward allocation",
                "tags": [
                    "allocation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/evaluators": {
            "post": {
                "summary": "Add evaluators",
                "tags": [
                    "access"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.EvaluatorsRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/evaluators/remove": {
            "post": {
                "summary": "Remove evaluators",
                "tags": [
                    "access"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.EvaluatorsRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/fund": {
            "post": {
                "summary": "Fund the pool",
                "tags": [
                    "funding"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.FundRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/withdraw": {
            "post": {
                "summary": "Withdraw funds of a cancelled prize",
                "tags": [
                    "funding"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/advance": {
            "post": {
                "summary": "Advance the phase",
                "tags": [
                    "state"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/cancel": {
            "post": {
                "summary": "Cancel the prize",
                "tags": [
                    "state"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/contributions": {
            "post": {
                "summary": "Submit a contribution",
                "tags": [
                    "contributions"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.SubmitContributionRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/contributions/{contestant}": {
            "get": {
                "summary": "Get a contribution",
                "tags": [
                    "contributions"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "path",
                        "name": "contestant",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/contributions/{contestant}/sealed-score": {
            "post": {
                "summary": "Seal the aggregate score",
                "tags": [
                    "contributions"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "path",
                        "name": "contestant",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.SealRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/contributions/{contestant}/sealed-reward": {
            "post": {
                "summary": "Seal the reward",
                "tags": [
                    "contributions"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "path",
                        "name": "contestant",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.SealRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/evaluations": {
            "post": {
                "summary": "Score one contribution",
                "tags": [
                    "evaluation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.EvaluateRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/scores": {
            "post": {
                "summary": "Assign scores in bulk",
                "tags": [
                    "evaluation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.AssignScoresRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/verify": {
            "post": {
                "summary": "Aggregate a batch of scores",
                "tags": [
                    "evaluation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.BatchRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/allocate": {
            "post": {
                "summary": "Allocate a batch of rewards",
                "tags": [
                    "allocation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/http.BatchRequest"
                        }
                    }
                ]
            }
        },
        "/v1/prizes/{prize_id}/claim": {
            "post": {
                "summary": "Claim the caller's reward",
                "tags": [
                    "allocation"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "prize_id",
                        "required": true,
                        "type": "string"
                    }
                ]
            }
        },
        "/v1/routes": {
            "get": {
                "summary": "List operation selectors",
                "tags": [
                    "routes"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "default": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/http.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "http.CreatePrizeRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "pool_size": {
                    "type": "string"
                },
                "criteria_names": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "criteria_weights": {
                    "type": "array",
                    "items": {
                        "type": "integer"
                    }
                },
                "strategy": {
                    "type": "string"
                }
            }
        },
        "http.EvaluatorsRequest": {
            "type": "object",
            "properties": {
                "addresses": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "http.FundRequest": {
            "type": "object",
            "properties": {
                "amount": {
                    "type": "string"
                }
            }
        },
        "http.SubmitContributionRequest": {
            "type": "object",
            "properties": {
                "description": {
                    "type": "string"
                }
            }
        },
        "http.EvaluateRequest": {
            "type": "object",
            "properties": {
                "contestant_index": {
                    "type": "integer"
                },
                "scores": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "http.AssignScoresRequest": {
            "type": "object",
            "properties": {
                "contestants": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "matrix": {
                    "type": "array",
                    "items": {
                        "type": "array",
                        "items": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "http.BatchRequest": {
            "type": "object",
            "properties": {
                "start": {
                    "type": "integer"
                },
                "count": {
                    "type": "integer"
                }
            }
        },
        "http.SealRequest": {
            "type": "object",
            "properties": {
                "recipient": {
                    "type": "string"
                },
                "public_key": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "prizeforge API",
	Description:      "Prize lifecycle: funding, contributions, evaluation, batched allocation and claims.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
