package web

import (
	"cmp"
	"net/http"
	"strconv"

	"household/internal/adapters/http/wire"
	"household/internal/application/directory"
	"household/internal/application/listutil"
	"household/internal/application/orchestrators"
	"household/internal/domain/enrollment"
	"household/internal/domain/family"
	"household/internal/domain/program"
)

type idResponse struct {
	ID string `json:"id"`
}

func (s *Server) adminDeps() orchestrators.FamilyAdminDeps {
	return orchestrators.FamilyAdminDeps{Families: s.deps.Directory, Events: s.deps.Events}
}

// --- Accounts ---

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req directory.AccountRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Directory.CreateAccount(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req directory.AccountRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Directory.UpdateAccount(r.Context(), r.PathValue("id"), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Families ---

// familySortColumns are the sort values accepted by the family search.
var familySortColumns = []string{"name", "created", "archived"}

func compareFamilies(col string, a, b family.Family) int {
	switch col {
	case "created":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "archived":
		return cmp.Compare(boolRank(a.Archived), boolRank(b.Archived))
	}
	return cmp.Compare(a.Name, b.Name)
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// handleSearchFamilies returns the whole match list unless page or per_page is given;
// paged responses carry X-Total-Count.
func (s *Server) handleSearchFamilies(w http.ResponseWriter, r *http.Request) {
	params := listutil.Parse(r.URL.Query(), familySortColumns)
	found, err := orchestrators.ExecuteSearchFamilies(r.Context(), params.Search, s.adminDeps())
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, info := listutil.Apply(found, params, compareFamilies)
	if page == nil {
		page = []family.Family{}
	}
	if params.Paged() {
		w.Header().Set("X-Total-Count", strconv.Itoa(info.Total))
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var req directory.FamilyRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Directory.CreateFamily(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	fam, err := s.deps.Directory.GetFamily(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fam)
}

func (s *Server) handleUpdateFamily(w http.ResponseWriter, r *http.Request) {
	var req directory.FamilyRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Directory.UpdateFamily(r.Context(), r.PathValue("id"), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

func (s *Server) handleArchiveFamily(w http.ResponseWriter, r *http.Request) {
	req := archiveRequest{Archived: true}
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	input := orchestrators.ArchiveFamilyInput{FamilyID: r.PathValue("id"), Archived: req.Archived}
	if err := orchestrators.ExecuteArchiveFamily(r.Context(), input, s.adminDeps()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteFamily(w http.ResponseWriter, r *http.Request) {
	input := orchestrators.DeleteFamilyInput{FamilyID: r.PathValue("id"), Confirm: r.URL.Query().Get("confirm")}
	if err := orchestrators.ExecuteDeleteFamily(r.Context(), input, s.adminDeps()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Members ---

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var req directory.MemberRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := s.deps.Directory.CreateMember(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var req directory.MemberRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Directory.UpdateMember(r.Context(), r.PathValue("id"), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Programs ---

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	filter, err := wire.ParseProgramQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.deps.Directory.ListPrograms(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []program.Program{}
	}
	writeJSON(w, http.StatusOK, list)
}

// --- Enrollments ---

func (s *Server) handleListEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Directory.ListEnrollments(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []enrollment.Enrollment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpsertEnrollment(w http.ResponseWriter, r *http.Request) {
	var req enrollment.Upsert
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Directory.UpsertEnrollment(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Directory.DeleteEnrollment(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
