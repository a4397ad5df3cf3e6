package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/geocode"
	"github.com/rj-tabelon/rentalrabbit/internal/middleware"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"github.com/rj-tabelon/rentalrabbit/internal/storage"
	"go.uber.org/zap"
)

// photoField is the multipart field carrying listing photos.
const photoField = "photos"

// Geocoder is satisfied by *geocode.Geocoder.
type Geocoder interface {
	Lookup(ctx context.Context, addr geocode.Address) (geocode.Result, error)
}

type PropertyHandler struct {
	properties repository.PropertyRepository
	uploader   storage.Uploader
	geocoder   Geocoder
	Responder
}

// NewPropertyHandler wires the listing endpoints. uploader may be nil when
// no bucket is configured; creating a listing with photos then fails.
func NewPropertyHandler(properties repository.PropertyRepository, uploader storage.Uploader, geocoder Geocoder, r Responder) *PropertyHandler {
	return &PropertyHandler{properties: properties, uploader: uploader, geocoder: geocoder, Responder: r}
}

// Search handles GET /properties
func (h *PropertyHandler) Search(c *gin.Context) {
	filter, err := parsePropertyFilter(c)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}

	properties, err := h.properties.Search(c.Request.Context(), filter)
	if err != nil {
		h.serverError(c, "retrieving properties", err)
		return
	}
	c.JSON(http.StatusOK, properties)
}

// Get handles GET /properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.fail(c, http.StatusBadRequest, "Invalid property id")
		return
	}

	p, err := h.properties.GetByID(c.Request.Context(), id)
	if err != nil {
		h.serverError(c, "retrieving property", err)
		return
	}
	if p == nil {
		h.fail(c, http.StatusNotFound, "Property not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

// Create handles POST /properties (multipart/form-data).
//
// Photos are uploaded first, then the address is geocoded, then the
// location and property are written in one transaction. Photos already
// uploaded are not removed if a later step fails.
func (h *PropertyHandler) Create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, http.StatusBadRequest, "Expected a multipart form")
		return
	}

	p, loc, err := propertyFromForm(form.Value)
	if err != nil {
		h.fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if p.ManagerCognitoID == "" {
		p.ManagerCognitoID = middleware.GetUserID(c)
	}

	ctx := c.Request.Context()

	// Step 1: photos.
	files := formFiles(form.File[photoField])
	if len(files) > 0 && h.uploader == nil {
		h.serverError(c, "creating property", errors.New("photo storage is not configured"))
		return
	}
	urls, err := storage.UploadAll(ctx, h.uploader, files)
	if err != nil {
		h.serverError(c, "creating property", err)
		return
	}
	p.PhotoURLs = urls

	// Step 2: coordinates. A failed lookup never blocks the listing.
	res, err := h.geocoder.Lookup(ctx, geocode.Address{
		Street:     loc.Address,
		City:       loc.City,
		Country:    loc.Country,
		PostalCode: loc.PostalCode,
	})
	if err != nil {
		h.logger.Warn("geocoding failed, using default coordinates",
			zap.String("address", loc.Address),
			zap.Error(err),
		)
		res = geocode.Result{}
	}
	loc.Coordinates = res.Coordinates
	loc.Geocoded = res.Resolved

	// Step 3: location and property.
	created, err := h.properties.Create(ctx, p, loc)
	if err != nil {
		if len(urls) > 0 {
			h.logger.Warn("listing not created, uploaded photos left in storage", zap.Strings("urls", urls))
		}
		h.notFoundOr(c, "creating property", err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func formFiles(headers []*multipart.FileHeader) []storage.File {
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, storage.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// propertyFromForm applies the form coercions: lists are comma separated,
// flags are true only for the literal "true", numbers must parse.
func propertyFromForm(values map[string][]string) (models.Property, models.Location, error) {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	var p models.Property
	var err error

	p.Name = get("name")
	if p.Name == "" {
		return p, models.Location{}, fmt.Errorf("name is required")
	}
	p.Description = get("description")
	p.PropertyType = models.PropertyType(get("propertyType"))
	if !p.PropertyType.Valid() {
		return p, models.Location{}, fmt.Errorf("invalid propertyType %q", get("propertyType"))
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"pricePerMonth", &p.PricePerMonth},
		{"securityDeposit", &p.SecurityDeposit},
		{"applicationFee", &p.ApplicationFee},
		{"baths", &p.Baths},
	}
	for _, f := range floats {
		if *f.dst, err = formFloat(f.key, get(f.key)); err != nil {
			return p, models.Location{}, err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"beds", &p.Beds},
		{"squareFeet", &p.SquareFeet},
	}
	for _, f := range ints {
		if *f.dst, err = formInt(f.key, get(f.key)); err != nil {
			return p, models.Location{}, err
		}
	}

	p.Amenities = splitList(get("amenities"))
	p.Highlights = splitList(get("highlights"))
	p.IsPetsAllowed = get("isPetsAllowed") == "true"
	p.IsParkingIncluded = get("isParkingIncluded") == "true"
	p.ManagerCognitoID = get("managerCognitoId")

	loc := models.Location{
		Address:    get("address"),
		City:       get("city"),
		State:      get("state"),
		Country:    get("country"),
		PostalCode: get("postalCode"),
	}

	return p, loc, nil
}

func formFloat(key, raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}

func formInt(key, raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return v, nil
}
