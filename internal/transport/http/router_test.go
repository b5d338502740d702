package httptransport

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	attendancehandler "rollcall/internal/attendance/handler"
	attendanceservice "rollcall/internal/attendance/service"
	"rollcall/internal/attendance/store/ledger"
	authhandler "rollcall/internal/auth/handler"
	authservice "rollcall/internal/auth/service"
	"rollcall/internal/auth/store/revocation"
	directoryhandler "rollcall/internal/directory/handler"
	directoryservice "rollcall/internal/directory/service"
	"rollcall/internal/directory/store/candidate"
	"rollcall/internal/directory/store/department"
	"rollcall/internal/directory/store/institution"
	"rollcall/internal/jwttoken"
	"rollcall/internal/scope"
	"rollcall/pkg/domain"
)

// RouterSuite drives the whole stack through the HTTP surface: register an
// institution, log in, build out the directory, then run the recognition
// workflow.
type RouterSuite struct {
	suite.Suite
	server *httptest.Server
}

func (s *RouterSuite) SetupTest() {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	institutions := institution.NewInMemory()
	departments := department.NewInMemory()
	candidates := candidate.NewInMemory()
	ledgerStore := ledger.NewInMemory()

	tokens := jwttoken.NewService("test-signing-key", "rollcall-test")
	trl := revocation.NewInMemoryTRL()
	resolver := scope.NewResolver(departments)

	directorySvc := directoryservice.New(institutions, departments, candidates)
	attendanceSvc := attendanceservice.New(candidates, ledgerStore, resolver)
	authSvc := authservice.New(institutions, departments, candidates, tokens, trl)

	router := NewRouter(log, nil,
		authhandler.New(authSvc, tokens, authSvc, log),
		directoryhandler.New(directorySvc, tokens, authSvc, log),
		attendancehandler.New(attendanceSvc, tokens, authSvc, log),
	)
	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) do(method, path, token string, body any) (*http.Response, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.server.URL+path, &buf)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	resp.Body.Close()
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp, decoded
}

func (s *RouterSuite) login(role, username, password string) string {
	resp, body := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"role":     role,
		"username": username,
		"password": password,
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	s.Require().NotEmpty(token)
	return token
}

func descriptorPayload(v float32) []float32 {
	d := make([]float32, domain.DescriptorLen)
	d[0] = v
	return d
}

func (s *RouterSuite) TestFullWorkflow() {
	resp, _ := s.do(http.MethodPost, "/institutions", "", map[string]string{
		"name":           "Springfield U",
		"admin_username": "admin",
		"password":       "password1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	adminToken := s.login("institution_admin", "admin", "password1")

	resp, dept := s.do(http.MethodPost, "/departments", adminToken, map[string]string{
		"name":             "Physics",
		"manager_username": "physmgr",
		"password":         "password1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	deptID, _ := dept["id"].(string)
	s.Require().NotEmpty(deptID)

	resp, _ = s.do(http.MethodPost, "/candidates", adminToken, map[string]any{
		"department_id": deptID,
		"name":          "Ada",
		"enrollment_id": "ENR-1",
		"username":      "ada",
		"password":      "password1",
		"descriptor":    descriptorPayload(0),
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	managerToken := s.login("department_manager", "physmgr", "password1")

	resp, mark := s.do(http.MethodPost, "/attendance/mark", managerToken, map[string]any{
		"descriptor": descriptorPayload(0.1),
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("marked", mark["outcome"])
	s.Equal(true, mark["success"])

	resp, mark = s.do(http.MethodPost, "/attendance/mark", managerToken, map[string]any{
		"descriptor": descriptorPayload(0.1),
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("already_marked", mark["outcome"])

	resp, noMatch := s.do(http.MethodPost, "/attendance/mark", managerToken, map[string]any{
		"descriptor": descriptorPayload(5),
	})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("no_match", noMatch["outcome"])
	s.Equal(false, noMatch["success"])

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/attendance/records", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+managerToken)
	listResp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer listResp.Body.Close()
	s.Require().Equal(http.StatusOK, listResp.StatusCode)

	var records []map[string]any
	s.Require().NoError(json.NewDecoder(listResp.Body).Decode(&records))
	s.Require().Len(records, 1)
	s.Equal("Ada", records[0]["candidate_name"])
}

func (s *RouterSuite) TestAuthBoundaries() {
	resp, _ := s.do(http.MethodPost, "/institutions", "", map[string]string{
		"name":           "Springfield U",
		"admin_username": "admin",
		"password":       "password1",
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	s.Run("protected routes reject missing tokens", func() {
		resp, _ := s.do(http.MethodPost, "/departments", "", map[string]string{"name": "Physics"})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("bad credentials are unauthorized", func() {
		resp, _ := s.do(http.MethodPost, "/auth/login", "", map[string]string{
			"role":     "institution_admin",
			"username": "admin",
			"password": "wrongpass",
		})
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("logout revokes the token", func() {
		token := s.login("institution_admin", "admin", "password1")

		resp, _ := s.do(http.MethodPost, "/auth/logout", token, nil)
		s.Require().Equal(http.StatusNoContent, resp.StatusCode)

		resp, _ = s.do(http.MethodGet, "/departments", token, nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})

	s.Run("duplicate admin username conflicts", func() {
		resp, _ := s.do(http.MethodPost, "/institutions", "", map[string]string{
			"name":           "Shelbyville U",
			"admin_username": "ADMIN",
			"password":       "password1",
		})
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("health endpoint is open", func() {
		resp, _ := s.do(http.MethodGet, "/healthz", "", nil)
		s.Equal(http.StatusOK, resp.StatusCode)
	})
}
