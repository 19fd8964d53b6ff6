package http_feature

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	infra_memory "github.com/humanbelnik/pokerboard/internal/infra/memory"
	usecase_feature "github.com/humanbelnik/pokerboard/internal/usecase/feature"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type FeatureControllerSuite struct {
	suite.Suite
}

type resources struct {
	engine *gin.Engine
}

func initResources() *resources {
	gin.SetMode(gin.TestMode)

	uc := usecase_feature.New(infra_memory.NewFeatureStore(), infra_memory.NewVoteLock(time.Hour))
	engine := gin.New()
	New(uc).RegisterRoutes(engine.Group("/api/v1"))

	return &resources{engine: engine}
}

func (r *resources) do(t provider.T, method, path, token string, body any) *httptest.ResponseRecorder {
	var data []byte
	if body != nil {
		var err error
		data, err = sonic.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(sessionTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	r.engine.ServeHTTP(rec, req)
	return rec
}

func (r *resources) create(t provider.T, name string) FeatureDTO {
	rec := r.do(t, http.MethodPost, "/features", "", CreateRequestDTO{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code)

	var f FeatureDTO
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &f))
	return f
}

func (suite *FeatureControllerSuite) TestCreate(t provider.T) {
	t.Parallel()

	t.Run("Should create feature with no votes", func(t provider.T) {
		t.Parallel()
		r := initResources()

		f := r.create(t, "  Dark mode ")
		assert.Equal(t, "Dark mode", f.Name)
		assert.Zero(t, f.Votes)
		_, err := uuid.Parse(f.ID)
		assert.NoError(t, err)
	})

	t.Run("Should reject blank name", func(t provider.T) {
		t.Parallel()
		r := initResources()

		rec := r.do(t, http.MethodPost, "/features", "", CreateRequestDTO{Name: "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func (suite *FeatureControllerSuite) TestVote(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		path           func(f FeatureDTO) string
		token          string
		body           any
		expectedStatus int
		expectedVotes  int
	}{
		{
			name:           "Should count upvote",
			path:           func(f FeatureDTO) string { return "/features/" + f.ID + "/votes" },
			token:          "tok-1",
			body:           VoteRequestDTO{Delta: 1},
			expectedStatus: http.StatusOK,
			expectedVotes:  1,
		},
		{
			name:           "Should count downvote",
			path:           func(f FeatureDTO) string { return "/features/" + f.ID + "/votes" },
			token:          "tok-1",
			body:           VoteRequestDTO{Delta: -1},
			expectedStatus: http.StatusOK,
			expectedVotes:  -1,
		},
		{
			name:           "Should require session token",
			path:           func(f FeatureDTO) string { return "/features/" + f.ID + "/votes" },
			body:           VoteRequestDTO{Delta: 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Should reject delta out of range",
			path:           func(f FeatureDTO) string { return "/features/" + f.ID + "/votes" },
			token:          "tok-1",
			body:           VoteRequestDTO{Delta: 2},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Should reject malformed id",
			path:           func(f FeatureDTO) string { return "/features/not-a-uuid/votes" },
			token:          "tok-1",
			body:           VoteRequestDTO{Delta: 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Should report unknown feature",
			path:           func(f FeatureDTO) string { return "/features/" + uuid.NewString() + "/votes" },
			token:          "tok-1",
			body:           VoteRequestDTO{Delta: 1},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources()
			f := r.create(t, "Export to CSV")

			rec := r.do(t, http.MethodPost, tc.path(f), tc.token, tc.body)
			require.Equal(t, tc.expectedStatus, rec.Code)

			if tc.expectedStatus == http.StatusOK {
				var got FeatureDTO
				require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
				assert.Equal(t, tc.expectedVotes, got.Votes)
			}
		})
	}
}

func (suite *FeatureControllerSuite) TestOneVotePerToken(t provider.T) {
	t.Parallel()
	r := initResources()
	f := r.create(t, "Keyboard shortcuts")
	path := "/features/" + f.ID + "/votes"

	require.Equal(t, http.StatusOK, r.do(t, http.MethodPost, path, "tok-1", VoteRequestDTO{Delta: 1}).Code)
	assert.Equal(t, http.StatusConflict, r.do(t, http.MethodPost, path, "tok-1", VoteRequestDTO{Delta: 1}).Code)
	assert.Equal(t, http.StatusConflict, r.do(t, http.MethodPost, path, "tok-1", VoteRequestDTO{Delta: -1}).Code)
	require.Equal(t, http.StatusOK, r.do(t, http.MethodPost, path, "tok-2", VoteRequestDTO{Delta: 1}).Code)

	rec := r.do(t, http.MethodGet, "/features", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []FeatureDTO
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Votes)
}

func (suite *FeatureControllerSuite) TestListOrder(t provider.T) {
	t.Parallel()
	r := initResources()

	older := r.create(t, "Older")
	time.Sleep(time.Millisecond)
	newer := r.create(t, "Newer")
	popular := r.create(t, "Popular")

	require.Equal(t, http.StatusOK,
		r.do(t, http.MethodPost, "/features/"+popular.ID+"/votes", "tok-1", VoteRequestDTO{Delta: 1}).Code)

	rec := r.do(t, http.MethodGet, "/features", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []FeatureDTO
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, popular.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.Equal(t, newer.ID, list[2].ID)
}

func TestFeatureControllerSuite(t *testing.T) {
	suite.RunSuite(t, new(FeatureControllerSuite))
}
