package echoapi_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/curriculum"
	"github.com/gothwad/classesx/core/user"
	"github.com/gothwad/classesx/core/video"
	"github.com/gothwad/classesx/testutil"
)

func Test_curriculumApi(t *testing.T) {
	ctx := context.Background()
	srv, env := newTestApp(t, nil)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@classesx.com", pwd, user.RoleAdmin, true)
	asha := testutil.CreateUser(t, env.UserRepo, "Asha", "stu-1@student.classesx.com", pwd, user.RoleStudent, true)
	ravi := testutil.CreateUser(t, env.UserRepo, "Ravi", "stu-2@student.classesx.com", pwd, user.RoleStudent, true)

	jee := testutil.CreateBatch(t, env.Batches, admin, "JEE 2027", "Physics", "Organic Chemistry")
	_, err := env.Batches.Enroll(ctx, admin, jee.ID, asha.ID)
	require.NoError(t, err)

	ch, err := env.Curriculum.AddChapter(ctx, admin, jee.ID, "Organic Chemistry", curriculum.NewChapter{Title: "Alkanes"})
	require.NoError(t, err)
	good, err := env.Curriculum.AddLecture(ctx, admin, curriculum.NewLecture{
		BatchID: jee.ID, Subject: "Organic Chemistry", ChapterID: ch.ID,
		TopicName: "Nomenclature", Date: "2026-10-01", YoutubeURL: "https://youtu.be/dQw4w9WgXcQ?t=42",
	})
	require.NoError(t, err)
	bad, err := env.Curriculum.AddLecture(ctx, admin, curriculum.NewLecture{
		BatchID: jee.ID, Subject: "Organic Chemistry", ChapterID: ch.ID,
		TopicName: "Isomers", Date: "2026-10-02", YoutubeURL: "https://vimeo.com/1",
	})
	require.NoError(t, err)

	base := "/v1/batches/" + jee.ID + "/subjects/" + url.PathEscape("Organic Chemistry") + "/chapters"
	lectures := base + "/" + ch.ID + "/lectures"
	ashaToken := getToken(t, asha)

	runHTTPTests(t, srv, []httpTest{
		{name: "chapters", path: base, token: ashaToken, wantCode: http.StatusOK, wantData: marchallObj(t, []curriculum.Chapter{ch})},
		{name: "not a member", path: base, token: getToken(t, ravi), wantCode: http.StatusNotFound},
		{name: "unknown subject", path: "/v1/batches/" + jee.ID + "/subjects/Biology/chapters", token: ashaToken, wantCode: http.StatusNotFound},
		{
			name: "students may not add chapters", method: http.MethodPost, path: base, token: ashaToken,
			body: []byte(`{"title":"Alkenes"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "chapter title required", method: http.MethodPost, path: base, token: getToken(t, admin),
			body: []byte(`{"title":"  "}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title":"Chapter title is required."}`),
		},
		{
			name: "player", path: lectures + "/" + good.ID + "/player", token: ashaToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, video.Surface{VideoID: "dQw4w9WgXcQ", EmbedURL: video.EmbedURL("dQw4w9WgXcQ", core.Conf.AppOrigin)}),
		},
		{
			name: "player awaiting a link", path: lectures + "/" + bad.ID + "/player", token: ashaToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, video.Surface{Awaiting: true, Message: video.ErrInvalidLink.Error()}),
		},
		{name: "unknown lecture", path: lectures + "/nope/player", token: ashaToken, wantCode: http.StatusNotFound},
	})
}
