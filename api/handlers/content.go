package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/linesmerrill/relief-portal-api/api"
	"github.com/linesmerrill/relief-portal-api/apperrors"
	"github.com/linesmerrill/relief-portal-api/moderation"
	"github.com/linesmerrill/relief-portal-api/storage"
)

// Content exported for testing purposes
type Content struct {
	Moderation *moderation.Service
	Storage    storage.Uploader
}

// CreateArticleHandler submits an article for moderation
func (c Content) CreateArticleHandler(w http.ResponseWriter, r *http.Request) {
	var in moderation.ArticleInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	article, err := c.Moderation.CreateArticle(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

// ArticlesHandler lists articles. Only admins can ask for a status other than approved.
func (c Content) ArticlesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	articles, err := c.Moderation.ListArticles(ctx, api.ActorFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

// ArticleByIDHandler returns an article by id or article code
func (c Content) ArticleByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	article, err := c.Moderation.GetArticle(ctx, api.ActorFrom(r.Context()), mux.Vars(r)["article_id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// ModerateArticleHandler approves or rejects a pending article
func (c Content) ModerateArticleHandler(w http.ResponseWriter, r *http.Request) {
	var in moderation.ModerateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	article, err := c.Moderation.ModerateArticle(ctx, api.ActorFrom(r.Context()), mux.Vars(r)["article_id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// readGalleryItem reads a gallery submission from JSON, or from a multipart
// form whose image file is uploaded to storage first
func (c Content) readGalleryItem(r *http.Request) (moderation.GalleryInput, *storage.Object, error) {
	var in moderation.GalleryInput
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err := decodeJSON(r, &in)
		return in, nil, err
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return in, nil, apperrors.Wrap(err, apperrors.ValidationError, "failed to parse multipart form")
	}
	in = moderation.GalleryInput{
		Caption:       r.FormValue("caption"),
		Src:           r.FormValue("src"),
		Photographer:  r.FormValue("photographer"),
		Source:        r.FormValue("source"),
		UploaderName:  r.FormValue("uploaderName"),
		UploaderEmail: r.FormValue("uploaderEmail"),
		UploaderPhone: r.FormValue("uploaderPhone"),
	}

	var stored *storage.Object
	if fhs := r.MultipartForm.File["image"]; len(fhs) > 0 {
		if strings.TrimSpace(in.Caption) == "" {
			return in, nil, apperrors.New(apperrors.ValidationError, "caption is a required field")
		}
		obj, err := uploadFile(r.Context(), c.Storage, storage.FolderGallery, fhs[0])
		if err != nil {
			return in, nil, apperrors.Wrap(err, apperrors.Internal, "failed to upload image")
		}
		stored = &obj
		in.Src = obj.URL
	}
	if err := validate.Struct(in); err != nil {
		if stored != nil {
			cleanup(r.Context(), c.Storage, []storage.Object{*stored})
		}
		return in, nil, err
	}
	return in, stored, nil
}

// CreateGalleryItemHandler submits an image for moderation
func (c Content) CreateGalleryItemHandler(w http.ResponseWriter, r *http.Request) {
	in, stored, err := c.readGalleryItem(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	item, err := c.Moderation.CreateGalleryItem(ctx, in)
	if err != nil {
		if stored != nil {
			cleanup(r.Context(), c.Storage, []storage.Object{*stored})
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// GalleryHandler lists gallery items with the same visibility as articles
func (c Content) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	items, err := c.Moderation.ListGallery(ctx, api.ActorFrom(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ModerateGalleryItemHandler approves or declines a pending gallery item
func (c Content) ModerateGalleryItemHandler(w http.ResponseWriter, r *http.Request) {
	var in moderation.ModerateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	item, err := c.Moderation.ModerateGalleryItem(ctx, api.ActorFrom(r.Context()), mux.Vars(r)["item_id"], in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
