// Package docs registra a documentação OpenAPI servida em /swagger/.
// Regenerar com: swag init -g cmd/main.go -o docs
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
        "/inventory": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Lista os saldos da organização",
                "responses": {
                    "200": {"description": "Saldos", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Inventory"}}},
                    "401": {"description": "Não autorizado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/inventory/adjustments": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Aplica uma movimentação ao saldo e grava a entrada no ledger. Repetir um reference_id devolve a entrada original com status 200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Ajusta o saldo de um produto",
                "parameters": [
                    {"description": "Movimentação de estoque", "name": "adjustment", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AdjustmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "reference_id já processado", "schema": {"$ref": "#/definitions/domain.InventoryTransaction"}},
                    "201": {"description": "Movimentação registrada", "schema": {"$ref": "#/definitions/domain.InventoryTransaction"}},
                    "400": {"description": "Payload inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Produto não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Conflito de concorrência persistente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "422": {"description": "Estoque insuficiente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "504": {"description": "Tempo esgotado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/inventory/reconciliation": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Restrito a administradores.",
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Lista divergências entre saldo e ledger",
                "responses": {
                    "200": {"description": "Divergências", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.LedgerDiscrepancy"}}},
                    "403": {"description": "Acesso negado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/inventory/{productId}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Obtém o saldo de um produto",
                "parameters": [{"type": "integer", "description": "ID do Produto", "name": "productId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Saldo", "schema": {"$ref": "#/definitions/domain.Inventory"}},
                    "404": {"description": "Sem saldo para o produto", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/inventory/{productId}/transactions": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Entradas ordenadas da mais recente para a mais antiga.",
                "produces": ["application/json"],
                "tags": ["inventory"],
                "summary": "Lista o ledger de um produto",
                "parameters": [{"type": "integer", "description": "ID do Produto", "name": "productId", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "Movimentações", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.InventoryTransaction"}}},
                    "404": {"description": "Sem saldo para o produto", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Lista as categorias da organização",
                "responses": {"200": {"description": "Categorias", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Category"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Cria uma categoria",
                "parameters": [{"description": "Dados da categoria", "name": "category", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.CategoryRequest"}}],
                "responses": {
                    "201": {"description": "Categoria criada", "schema": {"$ref": "#/definitions/domain.Category"}},
                    "409": {"description": "Nome já utilizado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/categories/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Obtém uma categoria por ID",
                "parameters": [{"type": "integer", "description": "ID da Categoria", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Categoria", "schema": {"$ref": "#/definitions/domain.Category"}}}
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["categories"],
                "summary": "Remove uma categoria",
                "parameters": [{"type": "integer", "description": "ID da Categoria", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Categoria removida", "schema": {"$ref": "#/definitions/domain.Category"}}}
            }
        },
        "/products": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Lista os produtos da organização",
                "responses": {"200": {"description": "Produtos", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Cria um novo produto",
                "parameters": [{"description": "Dados do produto", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.Product"}}],
                "responses": {"201": {"description": "Produto criado com sucesso", "schema": {"$ref": "#/definitions/domain.Product"}}}
            }
        },
        "/products/{id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Obtém um produto por ID",
                "parameters": [{"type": "integer", "description": "ID do Produto", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Produto encontrado", "schema": {"$ref": "#/definitions/domain.Product"}}}
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["products"],
                "summary": "Remove um produto",
                "parameters": [{"type": "integer", "description": "ID do Produto", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "Nenhum conteúdo"},
                    "409": {"description": "Produto possui inventário", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Registra um novo usuário",
                "parameters": [{"description": "Credenciais de registro", "name": "registration", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.UserRegistration"}}],
                "responses": {
                    "201": {"description": "Usuário criado com sucesso", "schema": {"$ref": "#/definitions/domain.User"}},
                    "409": {"description": "Email já cadastrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Autentica um usuário e retorna um JWT",
                "parameters": [{"description": "Credenciais do usuário", "name": "login", "in": "body", "required": true, "schema": {"$ref": "#/definitions/user.LoginRequest"}}],
                "responses": {
                    "200": {"description": "Token JWT emitido", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.AdjustmentRequest": {
            "type": "object",
            "properties": {
                "product_id": {"type": "integer", "example": 42},
                "transaction_type": {"type": "string", "enum": ["RECEIPT", "SALE", "ADJUSTMENT", "CORRECTION", "OTHER"], "example": "SALE"},
                "quantity_change": {"type": "string", "example": "-5"},
                "reference_id": {"type": "string", "example": "order-42"},
                "notes": {"type": "string"}
            }
        },
        "domain.Inventory": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "organization_id": {"type": "integer"},
                "product_id": {"type": "integer"},
                "product_name": {"type": "string", "example": "Chopp"},
                "quantity": {"type": "string", "example": "70.0000"},
                "version": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.InventoryTransaction": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "inventory_id": {"type": "integer"},
                "organization_id": {"type": "integer"},
                "product_id": {"type": "integer"},
                "transaction_type": {"type": "string"},
                "quantity_change": {"type": "string", "example": "-30.0000"},
                "quantity_before": {"type": "string", "example": "100.0000"},
                "quantity_after": {"type": "string", "example": "70.0000"},
                "reference_id": {"type": "string"},
                "notes": {"type": "string"},
                "created_by": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "domain.LedgerDiscrepancy": {
            "type": "object",
            "properties": {
                "inventory_id": {"type": "integer"},
                "organization_id": {"type": "integer"},
                "product_id": {"type": "integer"},
                "quantity": {"type": "string"},
                "ledger_sum": {"type": "string"}
            }
        },
        "domain.Category": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "organization_id": {"type": "integer"},
                "name": {"type": "string"},
                "dynamic_pricing": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.CategoryRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Cervejas"},
                "dynamic_pricing": {"type": "boolean", "example": true}
            }
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "organization_id": {"type": "integer"},
                "category_id": {"type": "integer"},
                "name": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "organization_id": {"type": "integer"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.UserRegistration": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "organization_id": {"type": "integer"}
            }
        },
        "user.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "gerente@bar.com"},
                "password": {"type": "string", "example": "s3nh4-f0rte"}
            }
        },
        "domain.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "category": {"type": "string", "example": "VALIDATION_ERROR"},
                "message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "BarStock API",
	Description:      "Controle de inventário com ledger imutável para bares e restaurantes.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
