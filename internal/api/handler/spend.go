package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/infrastructure/repository"
	"github.com/vfg2006/budget-control-api/internal/usecases/spending"
	"github.com/vfg2006/budget-control-api/pkg/apiErrors"
)

type RecordSpendRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// RecordSpend registra um gasto na campanha e devolve o snapshot resultante,
// já com a eventual pausa inline aplicada.
func RecordSpend(recorder spending.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := campaignIDFromRequest(w, r)
		if !ok {
			return
		}

		var req RecordSpendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Formato de requisição inválido", nil)
			return
		}

		campaign, err := recorder.RecordSpend(r.Context(), id, req.Amount)
		if err != nil {
			handleSpendError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(campaign)
	}
}

// SpendList lista os registros de gasto de uma campanha, mais recentes primeiro
func SpendList(spendRepo repository.SpendRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := campaignIDFromRequest(w, r)
		if !ok {
			return
		}

		var limit uint64
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Limite inválido", nil)
				return
			}
			limit = parsed
		}

		spends, err := spendRepo.ListSpendsByCampaign(r.Context(), id, limit)
		if err != nil {
			logrus.WithError(err).Error("Erro ao listar gastos da campanha")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao listar gastos", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(spends)
	}
}

// SpendTotal soma a trilha de auditoria da campanha. Serve para conferir os
// acumuladores contra os registros imutáveis.
func SpendTotal(spendRepo repository.SpendRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := campaignIDFromRequest(w, r)
		if !ok {
			return
		}

		total, err := spendRepo.SumSpendsByCampaign(r.Context(), id)
		if err != nil {
			logrus.WithError(err).Error("Erro ao somar gastos da campanha")
			apiErrors.WriteError(w, apiErrors.ErrDatabaseOperation, "Erro ao somar gastos", nil)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"campaign_id": id,
			"total":       total,
		})
	}
}

func handleSpendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, spending.ErrNegativeAmount):
		apiErrors.WriteError(w, apiErrors.ErrNegativeAmount, "Valor de gasto não pode ser negativo", nil)
	case errors.Is(err, spending.ErrCampaignNotFound):
		apiErrors.WriteError(w, apiErrors.ErrCampaignNotFound, "Campanha não encontrada", nil)
	default:
		logrus.WithError(err).Error("Erro ao registrar gasto")
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Erro ao registrar gasto", nil)
	}
}
