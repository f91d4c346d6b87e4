package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/internal/domain"
	"github.com/vfg2006/budget-control-api/pkg/apiErrors"
)

func CampaignList(campaignRepo repository.CampaignRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := repository.CampaignFilter{}

		if status := r.URL.Query().Get("status"); status != "" {
			filter.Statuses = []domain.CampaignStatus{domain.CampaignStatus(status)}
		}

		if r.URL.Query().Get("active") == "true" {
			filter.ActiveOnly = true
		}

		campaigns, err := campaignRepo.ListCampaigns(r.Context(), filter)
		if err != nil {
			logrus.WithError(err).Error("Erro ao listar campanhas")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar campanhas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(campaigns)
	}
}

func CampaignByID(campaignRepo repository.CampaignRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := campaignIDFromRequest(w, r)
		if !ok {
			return
		}

		campaign, err := campaignRepo.GetCampaignByID(r.Context(), id)
		if err != nil {
			logrus.WithError(err).Error("Erro ao consultar campanha")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao consultar campanha", nil)
			return
		}

		if campaign == nil {
			apiErrors.WriteError(w, apiErrors.ErrCampaignNotFound, "Campanha não encontrada", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(campaign)
	}
}

// CampaignSchedules lista as agendas de dayparting de uma campanha
func CampaignSchedules(scheduleRepo repository.ScheduleRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := campaignIDFromRequest(w, r)
		if !ok {
			return
		}

		schedules, err := scheduleRepo.ListSchedulesByCampaign(r.Context(), id)
		if err != nil {
			logrus.WithError(err).Error("Erro ao listar agendas da campanha")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar agendas", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(schedules)
	}
}

func campaignIDFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(httprouter.ParamsFromContext(r.Context()).ByName("id"))
	if err != nil {
		apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Identificador de campanha inválido", nil)
		return uuid.Nil, false
	}
	return id, true
}
