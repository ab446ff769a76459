// Package docs holds the OpenAPI document served by the swagger UI. It
// follows the swag output shape; regenerate with `swag init` after changing
// handler annotations.
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
        "/book": {
            "get": {
                "produces": ["application/json"],
                "tags": ["book"],
                "summary": "Get the book",
                "parameters": [
                    {"type": "boolean", "default": false, "description": "Include transactions", "name": "full", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/accounts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "List all accounts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListAccountsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Create a new account",
                "parameters": [
                    {"description": "Account details", "name": "account", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateAccountRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/accounts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Get an account by ID",
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AccountResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Update an account",
                "parameters": [
                    {"type": "string", "description": "Account ID to update", "name": "id", "in": "path", "required": true},
                    {"description": "Account details to update", "name": "account", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateAccountRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Delete an account",
                "parameters": [
                    {"type": "string", "description": "Account ID to delete", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Entity ID that takes over the account's shares", "name": "replacement", "in": "query"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/accounts/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Get the balance history of an account",
                "parameters": [
                    {"type": "string", "description": "Account ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Start date (YYYY-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/budgets": {
            "get": {
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "List all budgets",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListBudgetsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Create a new budget",
                "parameters": [
                    {"description": "Budget details", "name": "budget", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateBudgetRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.BudgetResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/budgets/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Get a budget by ID",
                "parameters": [
                    {"type": "string", "description": "Budget ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BudgetResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Update a budget",
                "parameters": [
                    {"type": "string", "description": "Budget ID to update", "name": "id", "in": "path", "required": true},
                    {"description": "Budget details to update", "name": "budget", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateBudgetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BudgetResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Delete a budget",
                "parameters": [
                    {"type": "string", "description": "Budget ID to delete", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Entity ID that takes over the budget's shares", "name": "replacement", "in": "query"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Conflict", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/budgets/{id}/history": {
            "get": {
                "produces": ["application/json"],
                "tags": ["budgets"],
                "summary": "Get the balance history of a budget",
                "parameters": [
                    {"type": "string", "description": "Budget ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Start date (YYYY-MM-DD)", "name": "from", "in": "query"},
                    {"type": "string", "description": "End date (YYYY-MM-DD)", "name": "to", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.HistoryResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/transactions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "List all transactions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ListTransactionsResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Book a transaction",
                "parameters": [
                    {"description": "Transaction details", "name": "transaction", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateTransactionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.TransactionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/transactions/import": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Import a bank statement",
                "parameters": [
                    {"type": "file", "description": "CSV statement file", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "Account the statement belongs to", "name": "accountID", "in": "formData", "required": true},
                    {"type": "string", "description": "Entity the rows are booked against", "name": "counterpartyID", "in": "formData", "required": true},
                    {"type": "integer", "description": "Header rows to skip", "name": "skipRows", "in": "formData"},
                    {"type": "string", "description": "Field delimiter, default comma", "name": "delimiter", "in": "formData"},
                    {"type": "string", "description": "Thousands separator to strip", "name": "thousands", "in": "formData"},
                    {"type": "string", "description": "Decimal separator, default dot", "name": "decimalSep", "in": "formData"},
                    {"type": "string", "description": "Date layout in Go reference time, default 2006-01-02", "name": "dateLayout", "in": "formData"},
                    {"type": "integer", "description": "Zero-based value column", "name": "valueColumn", "in": "formData"},
                    {"type": "integer", "description": "Zero-based date column", "name": "dateColumn", "in": "formData"},
                    {"type": "integer", "description": "Zero-based description column", "name": "descColumn", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.ImportStatementResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/transactions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Get a transaction by ID",
                "parameters": [
                    {"type": "string", "description": "Transaction ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.TransactionResponse"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["transactions"],
                "summary": "Delete a transaction",
                "parameters": [
                    {"type": "string", "description": "Transaction ID to delete", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Internal Server Error", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "dto.AccountResponse": {
            "type": "object",
            "properties": {
                "balance": {"type": "number"},
                "extern": {"type": "boolean"},
                "name": {"type": "string"},
                "uuid": {"type": "string"}
            }
        },
        "dto.BookResponse": {
            "type": "object",
            "properties": {
                "accounts": {"type": "array", "items": {"$ref": "#/definitions/dto.AccountResponse"}},
                "balance": {"type": "number"},
                "budgets": {"type": "array", "items": {"$ref": "#/definitions/dto.BudgetResponse"}},
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/dto.TransactionResponse"}}
            }
        },
        "dto.BudgetResponse": {
            "type": "object",
            "properties": {
                "balance": {"type": "number"},
                "budget": {"type": "number"},
                "name": {"type": "string"},
                "uuid": {"type": "string"}
            }
        },
        "dto.CreateAccountRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "extern": {"type": "boolean"},
                "name": {"type": "string"}
            }
        },
        "dto.CreateBudgetRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "budget": {"type": "number"},
                "name": {"type": "string"}
            }
        },
        "dto.CreateTransactionRequest": {
            "type": "object",
            "required": ["date", "receivers", "sources", "value"],
            "properties": {
                "date": {"type": "string"},
                "description": {"type": "string"},
                "receivers": {"type": "array", "items": {"type": "string"}},
                "sources": {"type": "array", "items": {"type": "string"}},
                "tags": {"type": "array", "items": {"type": "string"}},
                "value": {"type": "number"}
            }
        },
        "dto.HistoryPoint": {
            "type": "object",
            "properties": {
                "balance": {"type": "number"},
                "date": {"type": "string"}
            }
        },
        "dto.HistoryResponse": {
            "type": "object",
            "properties": {
                "points": {"type": "array", "items": {"$ref": "#/definitions/dto.HistoryPoint"}},
                "uuid": {"type": "string"}
            }
        },
        "dto.ImportStatementResponse": {
            "type": "object",
            "properties": {
                "imported": {"type": "integer"},
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/dto.TransactionResponse"}}
            }
        },
        "dto.ListAccountsResponse": {
            "type": "object",
            "properties": {
                "accounts": {"type": "array", "items": {"$ref": "#/definitions/dto.AccountResponse"}}
            }
        },
        "dto.ListBudgetsResponse": {
            "type": "object",
            "properties": {
                "budgets": {"type": "array", "items": {"$ref": "#/definitions/dto.BudgetResponse"}}
            }
        },
        "dto.ListTransactionsResponse": {
            "type": "object",
            "properties": {
                "transactions": {"type": "array", "items": {"$ref": "#/definitions/dto.TransactionResponse"}}
            }
        },
        "dto.TransactionResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "description": {"type": "string"},
                "receivers": {"type": "array", "items": {"type": "string"}},
                "sources": {"type": "array", "items": {"type": "string"}},
                "tags": {"type": "array", "items": {"type": "string"}},
                "uuid": {"type": "string"},
                "value": {"type": "number"}
            }
        },
        "dto.UpdateAccountRequest": {
            "type": "object",
            "properties": {
                "extern": {"type": "boolean"},
                "name": {"type": "string"}
            }
        },
        "dto.UpdateBudgetRequest": {
            "type": "object",
            "properties": {
                "budget": {"type": "number"},
                "name": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Bookkeeping Backend API",
	Description:      "Double-entry bookkeeping engine for personal finances.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
