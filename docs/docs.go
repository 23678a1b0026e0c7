// Package docs POI Cluster Service API.
//
// Кластеризация точек интереса, множество скрытых имён для уровня зума,
// композиция слоёв карты, круги поиска и маршруты.
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
        "/api/v1/clusters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Clusters"],
                "summary": "Кластеры и точки в области",
                "parameters": [
                    {"type": "string", "description": "west,south,east,north", "name": "bbox", "in": "query"},
                    {"type": "number", "description": "Уровень зума (0-24)", "name": "zoom", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/clusters/{id}/leaves": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Clusters"],
                "summary": "Исходные точки кластера",
                "parameters": [
                    {"type": "integer", "description": "ID кластера", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "default": 0, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/clusters/{id}/children": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Clusters"],
                "summary": "Потомки кластера",
                "parameters": [
                    {"type": "integer", "description": "ID кластера", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        },
        "/api/v1/clusters/{id}/expansion-zoom": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Clusters"],
                "summary": "Зум раскрытия кластера",
                "parameters": [
                    {"type": "integer", "description": "ID кластера", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/hidden": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Clusters"],
                "summary": "Имена точек, скрытых в кластерах",
                "parameters": [
                    {"type": "number", "description": "Уровень зума (0-24)", "name": "zoom", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        },
        "/api/v1/visibility": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Visibility"],
                "summary": "Вычисление скрытых имён по переданному набору точек",
                "parameters": [
                    {"description": "Запрос видимости", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.VisibilityRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.VisibilityResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/domain.VisibilityResponse"}}
                }
            }
        },
        "/api/v1/layers": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Layers"],
                "summary": "Слои карты для видимой области",
                "parameters": [
                    {"description": "Состояние карты", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/interaction/tooltip": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Interaction"],
                "summary": "Подсказка при наведении",
                "parameters": [
                    {"description": "Объект под указателем", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        },
        "/api/v1/interaction/popup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Interaction"],
                "summary": "Карточка объекта по клику",
                "parameters": [
                    {"description": "Выбранный объект", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        },
        "/api/v1/search-rings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Overlays"],
                "summary": "Круг поиска",
                "parameters": [
                    {"description": "Центр и радиус", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        },
        "/api/v1/routes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Overlays"],
                "summary": "Маршрут через точки",
                "parameters": [
                    {"description": "Точки маршрута", "name": "request", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/utils.ErrorResponse"}}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Statistics"],
                "summary": "Статистика набора точек",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.SuccessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.VisibilityRequest": {
            "type": "object",
            "properties": {
                "command": {"type": "string", "example": "getHiddenPointNames"},
                "dataArray": {"type": "array", "items": {"type": "object"}},
                "zoomLevel": {"type": "number"},
                "taskId": {"type": "string"}
            }
        },
        "domain.VisibilityResponse": {
            "type": "object",
            "properties": {
                "taskId": {"type": "string"},
                "zoomLevel": {"type": "number"},
                "result": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true}
            }
        },
        "utils.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/errors.AppError"}
            }
        },
        "utils.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "POI Cluster Service API",
	Description:      "Кластеризация точек интереса и композиция слоёв карты",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
