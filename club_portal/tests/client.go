package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/sumanthneerumalla/shuttleMentor-sub000/club_portal/services"
)

type httpTestRequest struct {
	api http.Handler

	method   string
	endpoint string
	headers  map[string]string
	json     interface{}
	body     io.Reader
	login    *loginInfo
}

func newHttpTestRequest(api http.Handler, method, endpoint string) *httpTestRequest {
	return &httpTestRequest{
		api:      api,
		method:   method,
		endpoint: endpoint,
	}
}

func (r *httpTestRequest) Header(key, value string) *httpTestRequest {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

func (r *httpTestRequest) Login(email, password string) *httpTestRequest {
	r.login = &loginInfo{Email: email, Password: password}
	return r
}

func (r *httpTestRequest) Auth(token string) *httpTestRequest {
	return r.Header("Authorization", fmt.Sprintf("Bearer %v", token))
}

func (r *httpTestRequest) Json(data interface{}) *httpTestRequest {
	r.json = data
	return r
}

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrBadRequest    = errors.New("bad request")
	ErrUnprocessable = errors.New("unprocessable")
)

// response body will be parsed into result, passing nil indicates that no result is returned.
func (r *httpTestRequest) Do(result interface{}) error {
	if r.json != nil {
		body := new(bytes.Buffer)
		err := json.NewEncoder(body).Encode(r.json)
		if err != nil {
			return fmt.Errorf("error encoding json body for endpoint %v: %w", r.endpoint, err)
		}
		r.body = body
	}

	req := httptest.NewRequest(r.method, r.endpoint, r.body)
	if r.headers != nil {
		for k, v := range r.headers {
			req.Header.Add(k, v)
		}
	}

	if r.login != nil {
		req.SetBasicAuth(r.login.Email, r.login.Password)
	}

	w := httptest.NewRecorder()

	r.api.ServeHTTP(w, req)

	res := w.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		switch res.StatusCode {
		case http.StatusUnauthorized:
			return ErrUnauthorized
		case http.StatusForbidden:
			return ErrForbidden
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusBadRequest:
			return ErrBadRequest
		case http.StatusUnprocessableEntity:
			return ErrUnprocessable
		}
		return fmt.Errorf("%v request to endpoint %v returned status %d, content '%v'", r.method, r.endpoint, res.StatusCode, w.Body.String())
	}

	if result != nil {
		err := json.NewDecoder(res.Body).Decode(result)
		if err != nil {
			return fmt.Errorf("error parsing %v response from endpoint %v: %w", r.method, r.endpoint, err)
		}
	}

	return nil
}

type client struct {
	api       chi.Router
	authToken string
	userId    string
}

func (c *client) Get(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "GET", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Post(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "POST", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

func (c *client) Delete(endpoint string) *httpTestRequest {
	r := newHttpTestRequest(c.api, "DELETE", endpoint)
	if c.authToken != "" {
		return r.Auth(c.authToken)
	}
	return r
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *client) signup(username, email, password string) (loginInfo, error) {
	body := map[string]string{
		"email": email, "username": username, "password": password,
	}

	err := c.Post("/user/signup").Json(body).Do(nil)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	var res map[string]string
	err := c.Get("/user/login").Login(login.Email, login.Password).Do(&res)
	if err != nil {
		return err
	}

	c.authToken = res["access_token"]
	c.userId = res["user_id"]

	return nil
}

func (c *client) userInfo() (services.UserInfo, error) {
	var res services.UserInfo
	err := c.Get("/user/info").Do(&res)
	return res, err
}

func (c *client) listUsers() ([]services.UserInfo, error) {
	var res []services.UserInfo
	err := c.Get("/user/list").Do(&res)
	return res, err
}

func (c *client) listCoaches() ([]services.CoachInfo, error) {
	var res []services.CoachInfo
	err := c.Get("/user/coaches").Do(&res)
	return res, err
}

func (c *client) profile(userId string) (services.ProfileResponse, error) {
	var res services.ProfileResponse
	err := c.Get(fmt.Sprintf("/user/%v/profile", userId)).Do(&res)
	return res, err
}

func (c *client) updateProfile(body map[string]interface{}) error {
	return c.Post("/user/profile").Json(body).Do(nil)
}

func (c *client) uploadProfileImage(imageBase64, contentType string) error {
	body := map[string]string{"image": imageBase64, "content_type": contentType}
	return c.Post("/user/profile/image").Json(body).Do(nil)
}

func (c *client) uploadHeaderImage(imageBase64, contentType string) error {
	body := map[string]string{"image": imageBase64, "content_type": contentType}
	return c.Post("/user/profile/header").Json(body).Do(nil)
}

func (c *client) deleteUser(userId string) error {
	return c.Delete(fmt.Sprintf("/user/%v", userId)).Do(nil)
}

func (c *client) setUserType(userId, userType string) error {
	body := map[string]string{"user_type": userType}
	return c.Post(fmt.Sprintf("/user/%v/type", userId)).Json(body).Do(nil)
}

func (c *client) setUserClub(userId, clubId string) error {
	body := map[string]interface{}{"club_id": clubId}
	return c.Post(fmt.Sprintf("/user/%v/club", userId)).Json(body).Do(nil)
}

func (c *client) createClub(name string) (string, error) {
	body := map[string]string{"name": name}

	var res map[string]string
	err := c.Post("/club/create").Json(body).Do(&res)
	return res["club_id"], err
}

func (c *client) listClubs() ([]services.ClubInfo, error) {
	var res []services.ClubInfo
	err := c.Get("/club/list").Do(&res)
	return res, err
}

func (c *client) listClubUsers(clubId string) ([]services.UserInfo, error) {
	var res []services.UserInfo
	err := c.Get(fmt.Sprintf("/club/%v/users", clubId)).Do(&res)
	return res, err
}

func (c *client) createVideoCollection(name string) (string, error) {
	body := map[string]string{"name": name}

	var res map[string]string
	err := c.Post("/video-collection/create").Json(body).Do(&res)
	return res["collection_id"], err
}

func (c *client) listVideoCollections() ([]services.VideoCollectionInfo, error) {
	var res []services.VideoCollectionInfo
	err := c.Get("/video-collection/list").Do(&res)
	return res, err
}

func (c *client) videoCollectionInfo(collectionId string) (services.VideoCollectionInfo, error) {
	var res services.VideoCollectionInfo
	err := c.Get(fmt.Sprintf("/video-collection/%v", collectionId)).Do(&res)
	return res, err
}

func (c *client) deleteVideoCollection(collectionId string) error {
	return c.Delete(fmt.Sprintf("/video-collection/%v", collectionId)).Do(nil)
}

func (c *client) addVideo(collectionId, title, url string) (string, error) {
	body := map[string]string{"title": title, "url": url}

	var res map[string]string
	err := c.Post(fmt.Sprintf("/video-collection/%v/videos", collectionId)).Json(body).Do(&res)
	return res["video_id"], err
}

func (c *client) deleteVideo(collectionId, videoId string) error {
	return c.Delete(fmt.Sprintf("/video-collection/%v/videos/%v", collectionId, videoId)).Do(nil)
}

func (c *client) assignCoach(collectionId string, coachId *string) error {
	body := map[string]interface{}{"coach_id": coachId}
	return c.Post(fmt.Sprintf("/video-collection/%v/assign-coach", collectionId)).Json(body).Do(nil)
}

func (c *client) createNote(collectionId, videoId, content string) (string, error) {
	body := map[string]string{"content": content}

	var res map[string]string
	err := c.Post(fmt.Sprintf("/video-collection/%v/videos/%v/notes", collectionId, videoId)).Json(body).Do(&res)
	return res["note_id"], err
}

func (c *client) listNotes(collectionId, videoId string) ([]services.NoteInfo, error) {
	var res []services.NoteInfo
	err := c.Get(fmt.Sprintf("/video-collection/%v/videos/%v/notes", collectionId, videoId)).Do(&res)
	return res, err
}

func (c *client) updateNote(collectionId, noteId, content string) error {
	body := map[string]string{"content": content}
	return c.Post(fmt.Sprintf("/video-collection/%v/notes/%v", collectionId, noteId)).Json(body).Do(nil)
}

func (c *client) deleteNote(collectionId, noteId string) error {
	return c.Delete(fmt.Sprintf("/video-collection/%v/notes/%v", collectionId, noteId)).Do(nil)
}

func (c *client) createCoachCollection(name, mediaType string) (string, error) {
	body := map[string]string{"name": name, "media_type": mediaType}

	var res map[string]string
	err := c.Post("/coach-collection/create").Json(body).Do(&res)
	return res["collection_id"], err
}

func (c *client) listCoachCollections() ([]services.CoachCollectionInfo, error) {
	var res []services.CoachCollectionInfo
	err := c.Get("/coach-collection/list").Do(&res)
	return res, err
}

func (c *client) coachCollectionInfo(collectionId string) (services.CoachCollectionInfo, error) {
	var res services.CoachCollectionInfo
	err := c.Get(fmt.Sprintf("/coach-collection/%v", collectionId)).Do(&res)
	return res, err
}

func (c *client) updateCoachCollection(collectionId string, body map[string]interface{}) error {
	return c.Post(fmt.Sprintf("/coach-collection/%v", collectionId)).Json(body).Do(nil)
}

func (c *client) deleteCoachCollection(collectionId string) error {
	return c.Delete(fmt.Sprintf("/coach-collection/%v", collectionId)).Do(nil)
}

func (c *client) addMedia(collectionId, title, url string) (string, error) {
	body := map[string]string{"title": title, "url": url}

	var res map[string]string
	err := c.Post(fmt.Sprintf("/coach-collection/%v/media", collectionId)).Json(body).Do(&res)
	return res["media_id"], err
}

func (c *client) deleteMedia(collectionId, mediaId string) error {
	return c.Delete(fmt.Sprintf("/coach-collection/%v/media/%v", collectionId, mediaId)).Do(nil)
}

func (c *client) shareWithStudents(collectionId string, userIds []string) error {
	body := map[string]interface{}{"user_ids": userIds}
	return c.Post(fmt.Sprintf("/coach-collection/%v/share/students", collectionId)).Json(body).Do(nil)
}

func (c *client) shareWithAllStudents(collectionId string) error {
	return c.Post(fmt.Sprintf("/coach-collection/%v/share/all-students", collectionId)).Json(struct{}{}).Do(nil)
}

func (c *client) shareWithAllCoaches(collectionId string) error {
	return c.Post(fmt.Sprintf("/coach-collection/%v/share/all-coaches", collectionId)).Json(struct{}{}).Do(nil)
}

func (c *client) unshare(collectionId, userId string) error {
	return c.Delete(fmt.Sprintf("/coach-collection/%v/share/%v", collectionId, userId)).Do(nil)
}

func (c *client) listShares(collectionId string) ([]services.ShareInfo, error) {
	var res []services.ShareInfo
	err := c.Get(fmt.Sprintf("/coach-collection/%v/shares", collectionId)).Do(&res)
	return res, err
}
