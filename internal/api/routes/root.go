package routes

import (
	"github.com/danielgtaylor/huma/v2"
)

func RegisterAPI(api huma.API) {
	RegisterIndex(api)
	RegisterHealth(api)
}
