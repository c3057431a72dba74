package format

// StatusFinalizado is the terminal movement status.
const StatusFinalizado = "finalizado"

type badge struct {
	label string
	class string
}

var statuses = map[string]badge{
	"aguardando_acolhimento":      {"Aguardando Acolhimento", "bg-warning text-dark"},
	"em_acolhimento":              {"Em Acolhimento", "bg-info"},
	"aguardando_atendimento":      {"Aguardando Atendimento", "bg-warning text-dark"},
	"em_atendimento":              {"Em Atendimento", "bg-primary"},
	"concluido":                   {"Concluído", "bg-success"},
	"cancelado":                   {"Cancelado", "bg-danger"},
	"acompanhamento_ambulatorial": {"Acompanhamento Ambulatorial", "bg-secondary"},
	"transferencia":               {"Transferência", "bg-dark"},
	"alta_medica":                 {"Alta Médica", "bg-success"},
	"internado":                   {"Internado", "bg-danger"},
	"em_observacao":               {"Em Observação", "bg-info"},
	"aguardando_internamento":     {"Aguardando Internamento", "bg-warning text-dark"},
	StatusFinalizado:              {"Finalizado", "bg-success"},
}

var types = map[string]badge{
	"emergencia":   {"Emergência", "bg-danger"},
	"consulta":     {"Consulta", "bg-primary"},
	"exame":        {"Exame", "bg-info"},
	"retorno":      {"Retorno", "bg-secondary"},
	"procedimento": {"Procedimento", "bg-warning text-dark"},
}

// Statuses lists the movement status codes in workflow order.
var Statuses = []string{
	"aguardando_acolhimento",
	"em_acolhimento",
	"aguardando_atendimento",
	"em_atendimento",
	"concluido",
	"cancelado",
	"acompanhamento_ambulatorial",
	"transferencia",
	"alta_medica",
	"internado",
	"em_observacao",
	"aguardando_internamento",
	StatusFinalizado,
}

// Types lists the movement type codes.
var Types = []string{"emergencia", "consulta", "exame", "retorno", "procedimento"}

func StatusLabel(status string) string {
	if b, ok := statuses[status]; ok {
		return b.label
	}
	return status
}

func StatusClass(status string) string {
	if b, ok := statuses[status]; ok {
		return b.class
	}
	return "bg-secondary"
}

func TypeLabel(tipo string) string {
	if b, ok := types[tipo]; ok {
		return b.label
	}
	return tipo
}

func TypeClass(tipo string) string {
	if b, ok := types[tipo]; ok {
		return b.class
	}
	return "bg-secondary"
}

// IsTerminalStatus reports whether a movement no longer accepts edit or delete.
func IsTerminalStatus(status string) bool {
	return status == StatusFinalizado
}
