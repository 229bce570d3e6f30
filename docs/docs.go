// Package docs registra o documento swagger servido em /swagger/.
// O template é mantido à mão junto com as anotações dos handlers.
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
        "/registry": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registry"],
                "summary": "Nome e contagem do registro",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/productservice.RegistryInfo"}}
                }
            }
        },
        "/products": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Lista produtos",
                "parameters": [
                    {"type": "integer", "description": "Página (default 1)", "name": "page", "in": "query"},
                    {"type": "integer", "description": "Itens por página (default 10, máx. 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Product"}}}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Cria um produto à venda; o dono é a conta autenticada.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Lista um novo produto",
                "parameters": [
                    {"description": "Nome e preço", "name": "product", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.CreateProductRequest"}}
                ],
                "responses": {
                    "201": {"description": "Evento ProductCreated", "schema": {"$ref": "#/definitions/domain.ProductEvent"}},
                    "400": {"description": "Nome vazio ou preço inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "401": {"description": "Token ausente ou inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "500": {"description": "Erro interno do servidor", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/products/count": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Quantidade de produtos criados",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/product.CountResponse"}}
                }
            }
        },
        "/products/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Obtém um produto por ID",
                "parameters": [
                    {"type": "integer", "description": "ID do produto", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Produto encontrado", "schema": {"$ref": "#/definitions/domain.Product"}},
                    "404": {"description": "Produto não encontrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/products/{id}/purchase": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Transfere a propriedade para a conta autenticada e repassa o pagamento integral ao vendedor.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["products"],
                "summary": "Compra um produto",
                "parameters": [
                    {"type": "integer", "description": "ID do produto", "name": "id", "in": "path", "required": true},
                    {"description": "Valor pago", "name": "purchase", "in": "body", "required": true, "schema": {"$ref": "#/definitions/product.PurchaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Evento ProductPurchased", "schema": {"$ref": "#/definitions/domain.ProductEvent"}},
                    "402": {"description": "Pagamento abaixo do preço", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "403": {"description": "Comprador é o dono", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "404": {"description": "Produto inexistente", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Produto já vendido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "422": {"description": "Falha na transferência", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Lê o log de eventos",
                "parameters": [
                    {"type": "integer", "description": "Sequência a partir da qual ler (exclusiva)", "name": "after", "in": "query"},
                    {"type": "integer", "description": "Máximo de eventos (default 50, máx. 500)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ProductEvent"}}},
                    "400": {"description": "Parâmetros inválidos", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/events/stream": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["events"],
                "summary": "Assina os eventos do registro",
                "parameters": [
                    {"type": "integer", "description": "Sequência a partir da qual reenviar", "name": "after", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Fluxo SSE de domain.ProductEvent", "schema": {"type": "string"}}
                }
            }
        },
        "/register": {
            "post": {
                "description": "Cria uma conta com a senha em hash e o saldo inicial configurado.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Registra uma nova conta",
                "parameters": [
                    {"description": "Credenciais de registro (email e senha)", "name": "registration", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.AccountRegistration"}}
                ],
                "responses": {
                    "201": {"description": "Conta criada com sucesso", "schema": {"$ref": "#/definitions/domain.Account"}},
                    "400": {"description": "Payload inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}},
                    "409": {"description": "Email já cadastrado", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Autentica uma conta e retorna um JWT",
                "parameters": [
                    {"description": "Credenciais (email e senha)", "name": "login", "in": "body", "required": true, "schema": {"$ref": "#/definitions/account.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token JWT emitido", "schema": {"$ref": "#/definitions/account.TokenResponse"}},
                    "401": {"description": "Credenciais inválidas", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        },
        "/accounts/me": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Conta autenticada e saldo atual",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Account"}},
                    "401": {"description": "Token ausente ou inválido", "schema": {"$ref": "#/definitions/domain.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "account.LoginRequest": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "account.TokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "domain.Account": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "balance": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.AccountRegistration": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "domain.ErrorResponse": {
            "description": "Estrutura padronizada para respostas de erro na API.",
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 409},
                "category": {"type": "string", "example": "ALREADY_SOLD"},
                "message": {"type": "string"}
            }
        },
        "domain.Product": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "integer"},
                "owner": {"type": "string"},
                "purchased": {"type": "boolean"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.ProductEvent": {
            "type": "object",
            "properties": {
                "event_id": {"type": "string"},
                "sequence": {"type": "integer"},
                "type": {"type": "string", "enum": ["ProductCreated", "ProductPurchased"]},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "price": {"type": "integer"},
                "owner": {"type": "string"},
                "purchased": {"type": "boolean"},
                "payment": {"type": "integer"},
                "seller": {"type": "string"},
                "occurred_at": {"type": "string"}
            }
        },
        "product.CountResponse": {
            "type": "object",
            "properties": {"productCount": {"type": "integer"}}
        },
        "product.CreateProductRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "iPhone X"},
                "price": {"type": "integer", "example": 1}
            }
        },
        "product.PurchaseRequest": {
            "type": "object",
            "properties": {"payment": {"type": "integer", "example": 1}}
        },
        "productservice.RegistryInfo": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "productCount": {"type": "integer"}}
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Marketplace API",
	Description:      "Registro de produtos com compra atômica e repasse integral ao vendedor.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
