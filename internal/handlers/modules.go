package handlers

import (
	"net/http"
	"slices"

	"hospital-system/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Module is an entry of the dashboard.
type Module struct {
	ID            string   `json:"id"`
	Titulo        string   `json:"titulo"`
	Icone         string   `json:"icone"`
	Permissoes    []string `json:"permissoes"`
	PriorityClass string   `json:"priority_class"`
	StatusClass   string   `json:"status_class"`
}

var modules = []Module{
	{ID: "reception", Titulo: "Recepção", Icone: "fas fa-user-plus", Permissoes: []string{"admin", "recepcionista"}},
	{ID: "risk", Titulo: "Classificação", Icone: "fas fa-exclamation-triangle", Permissoes: []string{"admin", "enfermeiro"}},
	{ID: "doctor", Titulo: "Clínico Geral", Icone: "fas fa-user-md", Permissoes: []string{"admin", "medico"}},
	{ID: "nurse", Titulo: "Enfermagem", Icone: "fas fa-heartbeat", Permissoes: []string{"admin", "enfermeiro"}},
	{ID: "pharmacy", Titulo: "Farmácia", Icone: "fas fa-pills", Permissoes: []string{"admin", "farmaceutico"}},
	{ID: "caf", Titulo: "CAF", Icone: "fas fa-capsules", Permissoes: []string{"admin", "farmaceutico"}},
	{ID: "lab", Titulo: "Laboratório", Icone: "fas fa-flask", Permissoes: []string{"admin", "laboratorista"}},
	{ID: "nutrition", Titulo: "Nutrição", Icone: "fas fa-apple-alt", Permissoes: []string{"admin", "nutricionista"}},
	{ID: "inventory", Titulo: "Almoxarifado", Icone: "fas fa-boxes", Permissoes: []string{"admin", "almoxarife"}},
	{ID: "purchase", Titulo: "Compras", Icone: "fas fa-shopping-cart", Permissoes: []string{"admin", "comprador"}},
	{ID: "finance", Titulo: "Financeiro", Icone: "fas fa-dollar-sign", Permissoes: []string{"admin", "financeiro"}},
	{ID: "contracts", Titulo: "Contratos", Icone: "fas fa-file-contract", Permissoes: []string{"admin", "juridico"}},
	{ID: "accounting", Titulo: "Prestação", Icone: "fas fa-chart-pie", Permissoes: []string{"admin", "contador"}},
	{ID: "medical-accounts", Titulo: "Contas Médicas", Icone: "fas fa-file-medical-alt", Permissoes: []string{"admin", "faturista"}},
	{ID: "it", Titulo: "TI", Icone: "fas fa-laptop-code", Permissoes: []string{"admin", "ti"}},
	{ID: "xray", Titulo: "Raio-X", Icone: "fas fa-x-ray", Permissoes: []string{"admin", "radiologista"}},
	{ID: "billing", Titulo: "Faturamento", Icone: "fas fa-file-invoice-dollar", Permissoes: []string{"admin", "faturista"}},
}

var (
	highPriorityModules   = []string{"reception", "risk", "doctor", "nurse", "pharmacy"}
	mediumPriorityModules = []string{"lab", "xray", "nutrition", "medical-accounts"}
	maintenanceModules    = []string{"it"}
)

func modulePriority(id string) string {
	switch {
	case slices.Contains(highPriorityModules, id):
		return "priority-high"
	case slices.Contains(mediumPriorityModules, id):
		return "priority-medium"
	}
	return "priority-low"
}

func moduleStatus(id string) string {
	if slices.Contains(maintenanceModules, id) {
		return "status-maintenance"
	}
	return "status-active"
}

func decorate(m Module) Module {
	m.PriorityClass = modulePriority(m.ID)
	m.StatusClass = moduleStatus(m.ID)
	return m
}

// ListModules returns the modules the current user's role may open.
func ListModules(c *gin.Context) {
	role := c.GetString(middleware.ContextUserTipo)
	out := make([]Module, 0, len(modules))
	for _, m := range modules {
		if slices.Contains(m.Permissoes, role) {
			out = append(out, decorate(m))
		}
	}
	c.JSON(http.StatusOK, gin.H{"modulos": out})
}

func GetModule(c *gin.Context) {
	id := c.Param("id")
	idx := slices.IndexFunc(modules, func(m Module) bool { return m.ID == id })
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Módulo não encontrado."})
		return
	}
	m := modules[idx]
	if !slices.Contains(m.Permissoes, c.GetString(middleware.ContextUserTipo)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Você não tem permissão para acessar este módulo."})
		return
	}
	c.JSON(http.StatusOK, decorate(m))
}
