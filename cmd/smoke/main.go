package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var verbose bool
var baseURL *url.URL

// scenario 封装一次端到端巡检过程中共享的资源。
type scenario struct {
	client *http.Client
	api    string
}

type userBody struct {
	User struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Token    string `json:"token"`
		Bio      string `json:"bio"`
	} `json:"user"`
}

type articleBody struct {
	Article struct {
		Slug           string   `json:"slug"`
		TagList        []string `json:"tagList"`
		Favorited      bool     `json:"favorited"`
		FavoritesCount int64    `json:"favoritesCount"`
	} `json:"article"`
}

type pageBody struct {
	Articles []struct {
		Slug string `json:"slug"`
	} `json:"articles"`
	ArticlesCount int64 `json:"articlesCount"`
}

type profileBody struct {
	Profile struct {
		Username  string `json:"username"`
		Following bool   `json:"following"`
	} `json:"profile"`
}

func banner(title string) {
	log.Infof("=== %s ===", title)
}

func step(format string, args ...interface{}) {
	log.Infof(" • "+format, args...)
}

func main() {
	var (
		base     string
		prefix   string
		password string
		timeout  time.Duration
	)
	flag.StringVar(&base, "base", "http://127.0.0.1:8000", "Base URL of the API server")
	flag.StringVar(&prefix, "prefix", "/api", "API path prefix")
	flag.StringVar(&password, "password", "P@ssw0rd9", "Password for the smoke users")
	flag.DurationVar(&timeout, "timeout", 20*time.Second, "HTTP timeout for requests")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	var err error
	baseURL, err = url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		log.Fatalf("parse base url: %v", err)
	}
	sc := &scenario{client: &http.Client{Timeout: timeout}, api: strings.TrimRight(prefix, "/")}
	sc.run(password)
}

func (s *scenario) run(password string) {
	must := func(err error, msg string) {
		if err != nil {
			log.Fatalf("%s: %v", msg, err)
		}
	}
	check := func(ok bool, format string, args ...any) {
		if !ok {
			log.Fatalf("assertion failed: "+format, args...)
		}
	}

	log.Infof("smoke start -> %s", baseURL)

	banner("Health Checks")
	step("Probe /healthz")
	must(s.call("GET", "/healthz", "", nil, 200, nil), "healthz")
	step("Probe /metrics")
	must(s.call("GET", "/metrics", "", nil, 200, nil), "metrics")

	banner("Users")
	suffix := time.Now().UnixNano()
	author := s.register(fmt.Sprintf("author_%d", suffix), password)
	reader := s.register(fmt.Sprintf("reader_%d", suffix), password)
	step("Duplicate registration is rejected")
	must(s.call("POST", s.api+"/users", "", map[string]any{"user": map[string]string{
		"username": author.User.Username, "email": "dup" + author.User.Email, "password": password,
	}}, 422, nil), "duplicate register")

	step("Login %s", author.User.Username)
	var login userBody
	must(s.call("POST", s.api+"/users/login", "", map[string]any{"user": map[string]string{
		"email": author.User.Email, "password": password,
	}}, 200, &login), "login")
	check(login.User.Token != "", "login returned no token")
	step("Wrong password yields 401")
	must(s.call("POST", s.api+"/users/login", "", map[string]any{"user": map[string]string{
		"email": author.User.Email, "password": password + "x",
	}}, 401, nil), "bad login")

	step("Update bio")
	var updated userBody
	must(s.call("PUT", s.api+"/user", author.User.Token, map[string]any{"user": map[string]string{"bio": "smoke bio"}}, 200, &updated), "update user")
	check(updated.User.Bio == "smoke bio", "bio not updated: %q", updated.User.Bio)
	must(s.call("GET", s.api+"/user", "", nil, 401, nil), "current user without token")

	banner("Profiles")
	var prof profileBody
	path := s.api + "/profiles/" + url.PathEscape(author.User.Username) + "/follow"
	must(s.call("POST", path, reader.User.Token, nil, 200, &prof), "follow")
	check(prof.Profile.Following, "follow did not set following")
	must(s.call("POST", path, reader.User.Token, nil, 200, &prof), "follow again")

	banner("Articles")
	tag := fmt.Sprintf("smoke%d", suffix)
	var first, second articleBody
	newArticle := map[string]any{"article": map[string]any{
		"title": "Smoke Title", "description": "d", "body": "b", "tagList": []string{tag},
	}}
	must(s.call("POST", s.api+"/articles", author.User.Token, newArticle, 201, &first), "create article")
	must(s.call("POST", s.api+"/articles", author.User.Token, newArticle, 201, &second), "create article again")
	check(first.Article.Slug != second.Article.Slug, "slugs collide: %s", first.Article.Slug)
	step("Slugs %s, %s", first.Article.Slug, second.Article.Slug)

	var feed pageBody
	must(s.call("GET", s.api+"/articles/feed", reader.User.Token, nil, 200, &feed), "feed")
	check(feed.ArticlesCount >= 2, "feed count %d", feed.ArticlesCount)

	var byTag pageBody
	must(s.call("GET", s.api+"/articles?tag="+url.QueryEscape(tag)+"&limit=1", "", nil, 200, &byTag), "list by tag")
	check(byTag.ArticlesCount == 2 && len(byTag.Articles) == 1, "tag filter: count=%d len=%d", byTag.ArticlesCount, len(byTag.Articles))
	check(byTag.Articles[0].Slug == second.Article.Slug, "tag filter not newest first")

	banner("Favorites")
	fav := s.api + "/articles/" + first.Article.Slug + "/favorite"
	var favd articleBody
	must(s.call("POST", fav, reader.User.Token, nil, 200, &favd), "favorite")
	must(s.call("POST", fav, reader.User.Token, nil, 200, &favd), "favorite again")
	check(favd.Article.Favorited && favd.Article.FavoritesCount == 1, "favorite count %d", favd.Article.FavoritesCount)
	must(s.call("DELETE", fav, reader.User.Token, nil, 200, &favd), "unfavorite")
	check(!favd.Article.Favorited && favd.Article.FavoritesCount == 0, "unfavorite count %d", favd.Article.FavoritesCount)

	banner("Comments")
	var created struct {
		Comment struct {
			ID uint64 `json:"id"`
		} `json:"comment"`
	}
	comments := s.api + "/articles/" + first.Article.Slug + "/comments"
	must(s.call("POST", comments, reader.User.Token, map[string]any{"comment": map[string]string{"body": "nice"}}, 201, &created), "add comment")
	step("Delete through another slug is refused")
	must(s.call("DELETE", fmt.Sprintf("%s/articles/%s/comments/%d", s.api, second.Article.Slug, created.Comment.ID), reader.User.Token, nil, 404, nil), "mismatched delete")
	must(s.call("DELETE", fmt.Sprintf("%s/%d", comments, created.Comment.ID), reader.User.Token, nil, 200, nil), "delete comment")

	banner("Cleanup")
	for _, slug := range []string{first.Article.Slug, second.Article.Slug} {
		must(s.call("DELETE", s.api+"/articles/"+slug, author.User.Token, nil, 200, nil), "delete article")
		must(s.call("GET", s.api+"/articles/"+slug, "", nil, 404, nil), "deleted article")
	}
	must(s.call("DELETE", path, reader.User.Token, nil, 200, &prof), "unfollow")
	check(!prof.Profile.Following, "unfollow did not clear following")

	log.Info("smoke passed")
}

func (s *scenario) register(username, password string) userBody {
	step("Register %s", username)
	var out userBody
	err := s.call("POST", s.api+"/users", "", map[string]any{"user": map[string]string{
		"username": username, "email": username + "@example.com", "password": password,
	}}, 201, &out)
	if err != nil {
		log.Fatalf("register %s: %v", username, err)
	}
	return out
}

// call 发送 JSON 请求并校验状态码；out 非空时解析响应体。
func (s *scenario) call(method, path, token string, body any, want int, out any) error {
	u := baseURL.String() + path
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
		log.Debugf("%s %s\n请求体: %s", method, u, prettyJSON(b))
	}
	req, err := http.NewRequest(method, u, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: status %d, want %d, body: %s", method, u, resp.StatusCode, want, safeTrunc(string(b), 2048))
	}
	log.Debugf("%s %s -> %d\n响应体: %s", method, u, resp.StatusCode, prettyJSON(b))
	if out != nil {
		return json.Unmarshal(b, out)
	}
	return nil
}

func prettyJSON(b []byte) string {
	var js any
	if err := json.Unmarshal(b, &js); err != nil {
		return safeTrunc(string(b), 1200)
	}
	pb, _ := json.MarshalIndent(js, "", "  ")
	return string(pb)
}

func safeTrunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
