package controller

import (
	"onco-advisor-be/internal/pkg/serverutils"
	"onco-advisor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDatasetController interface {
	RegisterRoutes(r fiber.Router)
	Reload(ctx *fiber.Ctx) error
}

type datasetController struct {
	datasetService service.IDatasetService
}

func NewDatasetController(datasetService service.IDatasetService) IDatasetController {
	return &datasetController{
		datasetService: datasetService,
	}
}

func (c *datasetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dataset/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("reload", c.Reload)
}

func (c *datasetController) Reload(ctx *fiber.Ctx) error {
	res, err := c.datasetService.Reload(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reload dataset", res))
}
