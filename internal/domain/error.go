package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code     int    `json:"code" example:"409"`
	Category string `json:"category" example:"ALREADY_SOLD"`
	Message  string `json:"message" example:"Produto já vendido: o produto 1 não pode ser comprado novamente"`
}
