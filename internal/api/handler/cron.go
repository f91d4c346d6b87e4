package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/budget-control-api/internal/scheduler"
	"github.com/vfg2006/budget-control-api/pkg/apiErrors"
)

// CronJobServices contém os agendadores que podem ser disparados manualmente
type CronJobServices struct {
	SweepService      *scheduler.EnforcementSweepService
	ResetService      *scheduler.BudgetResetService
	SimulationService *scheduler.SpendSimulationService
}

// RunCronJob dispara manualmente uma varredura específica. A rota já passa
// pelo middleware AdminOnly.
func RunCronJob(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sweep := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if sweep == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "Tipo de varredura não especificado", nil)
			return
		}

		if services.SweepService == nil {
			apiErrors.WriteError(w, apiErrors.ErrInternalServer, "Serviço de varreduras não disponível", nil)
			return
		}

		if err := services.SweepService.TriggerManualSweep(sweep); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest,
				"Tipo de varredura inválido. Valores aceitos: budget, dayparting, reactivation", nil)
			return
		}

		logrus.WithField("sweep", sweep).Info("Varredura disparada manualmente")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"message": "Varredura iniciada com sucesso",
			"type":    sweep,
		})
	}
}

// GetCronStatus retorna o status dos agendadores
func GetCronStatus(services CronJobServices) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{}

		if services.SweepService != nil {
			status["sweeps"] = services.SweepService.GetStatus()
		}
		if services.ResetService != nil {
			status["resets"] = services.ResetService.GetStatus()
		}
		if services.SimulationService != nil {
			status["simulation"] = services.SimulationService.GetStatus()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
