package serverutils

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type APIResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Message: message,
		Data:    data,
	}
}

var validate = validator.New()

// ValidateRequest checks struct validate tags and returns a fiber
// BadRequest error with the first violation
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return fiber.NewError(fiber.StatusBadRequest,
				"invalid field: "+verrs[0].Field())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
