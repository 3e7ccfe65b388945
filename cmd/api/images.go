package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shop/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

func (app *application) uploadProductImageHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	const maxBytes = 8 * 1024 * 1024 // 8MB
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}

	description := strings.TrimSpace(r.FormValue("description"))
	isMain := strings.ToLower(r.FormValue("is_main")) == "true"

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("image file is required"))
		return
	}
	defer file.Close()

	mime, err := sniffMIME(file)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("sniff mime: %w", err))
		return
	}
	allowed := map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true}
	if !allowed[mime] {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image type: %s", mime))
		return
	}

	publicID := fmt.Sprintf("product_%d_%d", product.ID, time.Now().UnixNano())
	imageURL, err := app.uploadToCloudinary(file, publicID)
	if err != nil {
		app.internalServerError(w, r, fmt.Errorf("failed to upload image: %w", err))
		return
	}

	img := &store.ProductImage{
		ProductID:   product.ID,
		URL:         imageURL,
		Description: description,
		IsMain:      isMain,
	}

	if err := app.store.Images.Create(r.Context(), img); err != nil {
		// cleanup failed upload
		go app.deleteFromCloudinary(imageURL)
		switch {
		case errors.Is(err, store.ErrDuplicateMainImage):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, fmt.Errorf("failed to save image: %w", err))
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, img); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) setMainImageHandler(w http.ResponseWriter, r *http.Request) {
	product, ok := app.productFromRequest(w, r)
	if !ok {
		return
	}

	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image id"))
		return
	}

	if err := app.store.Images.SetMain(r.Context(), product.ID, imageID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, store.ErrImageNotOwned):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int64{"main_image_id": imageID}); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteProductImageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.productFromRequest(w, r); !ok {
		return
	}

	imageID, err := strconv.ParseInt(chi.URLParam(r, "imageID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid image id"))
		return
	}

	if err := app.store.Images.Delete(r.Context(), imageID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sniffMIME detects the content type from the first bytes of the file, then
// rewinds so the upload starts from the beginning.
func sniffMIME(file io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (app *application) uploadToCloudinary(file io.Reader, publicID string) (string, error) {
	resp, err := app.cld.Upload.Upload(
		context.Background(),
		file,
		uploader.UploadParams{
			Folder:    "products",
			PublicID:  publicID,
			Overwrite: api.Bool(false),
		},
	)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return resp.SecureURL, nil
}

func (app *application) deleteFromCloudinary(imageURL string) error {
	publicID, err := extractPublicIDFromURL(imageURL)
	if err != nil {
		return fmt.Errorf("failed to extract public ID: %w", err)
	}

	_, err = app.cld.Upload.Destroy(context.Background(), uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("failed to delete image from Cloudinary: %w", err)
	}
	return nil
}

func extractPublicIDFromURL(imageURL string) (string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	pathParts := strings.Split(parsedURL.Path, "/")
	for i, part := range pathParts {
		if part == "upload" && i+1 < len(pathParts) {
			return strings.Join(pathParts[i+1:], "/"), nil
		}
	}

	return "", errors.New("failed to extract public ID from URL")
}
