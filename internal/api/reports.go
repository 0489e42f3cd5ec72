package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/llazzari/personal-finance/internal/model"
	"github.com/llazzari/personal-finance/internal/source"
)

// MonthlyReport is the month view of a profile.
type MonthlyReport struct {
	Year          int                       `json:"year"`
	Month         int                       `json:"month"`
	Total         decimal.Decimal           `json:"total"`
	Subcategories []source.SubcategoryTotal `json:"subcategories"`
	Incomes       []source.CategoryTotal    `json:"incomes"`
}

func (s *Server) source(w http.ResponseWriter, r *http.Request) (*source.Source, bool) {
	src, err := s.app.Source(r.Context(), chi.URLParam(r, "profile"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return src, true
}

// tables snapshots the expense and income tables separately.
func (s *Server) tables(w http.ResponseWriter, r *http.Request) (*source.Source, *source.Source, bool) {
	profile := chi.URLParam(r, "profile")
	exp, err := s.app.Table(r.Context(), profile, model.KindExpense)
	if err != nil {
		s.fail(w, err)
		return nil, nil, false
	}
	inc, err := s.app.Table(r.Context(), profile, model.KindIncome)
	if err != nil {
		s.fail(w, err)
		return nil, nil, false
	}
	return source.New(s.app.Taxonomy, model.KindExpense, exp), source.New(s.app.Taxonomy, model.KindIncome, inc), true
}

// years handles GET /api/reports/{profile}/years
func (s *Server) years(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"years": src.Years()})
}

// months handles GET /api/reports/{profile}/months?year=
func (s *Server) months(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
		return
	}
	src, ok := s.source(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]int{"months": src.Months(year)})
}

// monthly handles GET /api/reports/{profile}/monthly?year=&month=
func (s *Server) monthly(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
		return
	}
	month, err := queryInt(r, "month")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
		return
	}
	exp, inc, ok := s.tables(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, MonthlyReport{
		Year:          year,
		Month:         month,
		Total:         exp.TotalMonthAmount(year, month),
		Subcategories: exp.MonthExpenseBySubcategory(year, month),
		Incomes:       inc.MonthIncomeByCategory(month, year),
	})
}

// evolution handles GET /api/reports/{profile}/evolution?year=
func (s *Server) evolution(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
		return
	}
	src, ok := s.source(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]source.MonthPoint{"points": src.Evolution(year)})
}

// yearly handles GET /api/reports/{profile}/yearly
func (s *Server) yearly(w http.ResponseWriter, r *http.Request) {
	src, ok := s.source(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]source.YearPoint{"points": src.YearlyEvolution()})
}

// categories handles GET /api/reports/{profile}/categories?year=
func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "validation")
		return
	}
	exp, _, ok := s.tables(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string][]source.CategoryPoint{"points": exp.EvolutionPerCategory(year)})
}
