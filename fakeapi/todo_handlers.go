package fakeapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func (s *Server) handleTodoList(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]todo, 0, len(s.todos))
	for _, t := range s.todos {
		list = append(list, *t)
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTodoCreate(w http.ResponseWriter, r *http.Request) {
	var req todo
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &todo{ID: s.next("todo"), Title: req.Title, Description: req.Description, Completed: req.Completed}
	s.todos = append(s.todos, t)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) todoIndexLocked(id int) int {
	for i, t := range s.todos {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) handleTodoPatch(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := readJSON(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, detail("JSON parse error."))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.todoIndexLocked(pathID(r))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, detail("Not found."))
		return
	}
	updated := *s.todos[i]
	for field, raw := range patch {
		var err error
		switch field {
		case "title":
			err = json.Unmarshal(raw, &updated.Title)
		case "description":
			err = json.Unmarshal(raw, &updated.Description)
		case "completed":
			err = json.Unmarshal(raw, &updated.Completed)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string][]string{field: {"Invalid value."}})
			return
		}
	}
	if strings.TrimSpace(updated.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}
	*s.todos[i] = updated
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleTodoDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.todoIndexLocked(pathID(r))
	if i < 0 {
		writeJSON(w, http.StatusNotFound, detail("Not found."))
		return
	}
	s.todos = append(s.todos[:i], s.todos[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}
