package utils

import "time"

// IsHourInRange verifica se a hora está dentro da janela [start, end).
// Quando start >= end a janela cruza a meia-noite (ex: 22h às 2h cobre
// as horas 22, 23, 0 e 1; a hora 2 fica fora porque o fim é exclusivo).
// O caso degenerado start == end cai no ramo de virada e cobre todas as
// horas do dia; esse comportamento é proposital e não deve ser "corrigido".
func IsHourInRange(start, end, hour int) bool {
	if start < end {
		return start <= hour && hour < end
	}

	return hour >= start || hour < end
}

// DayOfWeek converte o dia da semana do Go (domingo = 0) para a convenção
// das agendas de dayparting (segunda = 0 ... domingo = 6).
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
