package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/pkg/apiErrors"
)

func BrandList(brandRepo repository.BrandRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		brands, err := brandRepo.ListBrands(r.Context())
		if err != nil {
			logrus.WithError(err).Error("Erro ao listar marcas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar marcas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(brands)
	}
}

func BrandByID(brandRepo repository.BrandRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(httprouter.ParamsFromContext(r.Context()).ByName("id"))
		if err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Identificador de marca inválido", nil)
			return
		}

		brand, err := brandRepo.GetBrandByID(r.Context(), id)
		if err != nil {
			logrus.WithError(err).Error("Erro ao consultar marca")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao consultar marca", nil)
			return
		}

		if brand == nil {
			apiErrors.WriteError(w, apiErrors.ErrBrandNotFound, "Marca não encontrada", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(brand)
	}
}
