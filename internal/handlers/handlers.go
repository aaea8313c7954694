package handlers

import (
	"errors"
	"image"
	"net/http"
	"time"

	"github.com/Brownie44l1/aquasense/internal/imageio"
	"github.com/Brownie44l1/aquasense/internal/model"
	"github.com/Brownie44l1/aquasense/internal/segment"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ModelSource hands out loaded models by name.
type ModelSource interface {
	Model(name string) (segment.Model, error)
}

type Handler struct {
	models         ModelSource
	catalog        []model.Info
	maxUploadBytes int64
}

func NewHandler(models ModelSource, catalog []model.Info, maxUploadBytes int64) *Handler {
	return &Handler{
		models:         models,
		catalog:        catalog,
		maxUploadBytes: maxUploadBytes,
	}
}

type SegmentResponse struct {
	RequestID     string  `json:"request_id"`
	Model         string  `json:"model"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	WaterFraction float64 `json:"water_fraction"`
	Original      string  `json:"original"`
	Mask          string  `json:"mask"`
	Overlay       string  `json:"overlay"`
}

// artifacts maps download names to file names and the image they serve.
var artifacts = map[string]struct {
	filename string
	pick     func(original image.Image, res *segment.Result) image.Image
}{
	"original": {"original_image.png", func(original image.Image, _ *segment.Result) image.Image { return original }},
	"mask":     {"segmentation_mask.png", func(_ image.Image, res *segment.Result) image.Image { return res.ColoredMask }},
	"overlay":  {"overlay_result.png", func(_ image.Image, res *segment.Result) image.Image { return res.Overlay }},
	"binary":   {"binary_mask.png", func(_ image.Image, res *segment.Result) image.Image { return res.Mask }},
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": h.catalog})
}

func (h *Handler) Segment(c *gin.Context) {
	name, original, res, ok := h.run(c)
	if !ok {
		return
	}

	resp := SegmentResponse{
		RequestID:     c.GetString(requestIDKey),
		Model:         string(name),
		Width:         res.Size.Width,
		Height:        res.Size.Height,
		WaterFraction: res.WaterFraction,
	}
	for dst, img := range map[*string]image.Image{
		&resp.Original: original,
		&resp.Mask:     res.ColoredMask,
		&resp.Overlay:  res.Overlay,
	} {
		uri, err := imageio.DataURI(img)
		if err != nil {
			logger(c).WithError(err).Error("Encoding error")
			respondError(c, http.StatusInternalServerError, "Failed to encode result")
			return
		}
		*dst = uri
	}

	c.JSON(http.StatusOK, resp)
}

// Download runs the pipeline and returns one result image as a PNG
// attachment.
func (h *Handler) Download(c *gin.Context) {
	artifact, ok := artifacts[c.Param("artifact")]
	if !ok {
		respondError(c, http.StatusNotFound, "Unknown artifact. Use original, mask, overlay or binary")
		return
	}

	_, original, res, ok := h.run(c)
	if !ok {
		return
	}

	data, err := imageio.EncodePNG(artifact.pick(original, res))
	if err != nil {
		logger(c).WithError(err).Error("Encoding error")
		respondError(c, http.StatusInternalServerError, "Failed to encode result")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.filename+`"`)
	c.Data(http.StatusOK, "image/png", data)
}

// run parses the upload, resolves the model and executes the pipeline. It
// writes the error response itself and reports false on failure.
func (h *Handler) run(c *gin.Context) (model.Name, image.Image, *segment.Result, bool) {
	log := logger(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(c, http.StatusBadRequest, "Failed to parse form")
		return "", nil, nil, false
	}

	requested := c.PostForm("model")
	if requested == "" {
		requested = c.DefaultQuery("model", string(model.UNet))
	}
	name, err := model.ParseName(requested)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Unknown model. Choose U-Net or DeepLabV3+")
		return "", nil, nil, false
	}
	log = log.WithField("model", name)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No image file provided. Use 'image' as the form field name")
		return "", nil, nil, false
	}
	defer file.Close()

	img, err := imageio.Decode(file)
	if err != nil {
		log.WithError(err).Warn("Decode error")
		respondError(c, http.StatusBadRequest, "Invalid image format. Supported: JPEG, PNG, GIF, BMP, TIFF")
		return "", nil, nil, false
	}
	log = log.WithFields(logrus.Fields{
		"file":   header.Filename,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	})

	m, err := h.models.Model(string(name))
	if err != nil {
		log.WithError(err).Error("Model load error")
		if errors.Is(err, model.ErrUnknownModel) {
			respondError(c, http.StatusBadRequest, "Unknown model. Choose U-Net or DeepLabV3+")
		} else {
			respondError(c, http.StatusInternalServerError, "Failed to load model")
		}
		return "", nil, nil, false
	}

	start := time.Now()
	res, err := segment.Run(m, img)
	if err != nil {
		log.WithError(err).Error("Segmentation error")
		respondError(c, http.StatusInternalServerError, "Segmentation failed")
		return "", nil, nil, false
	}
	log.WithFields(logrus.Fields{
		"water_fraction": res.WaterFraction,
		"took":           time.Since(start),
	}).Info("Segmented image")

	return name, img, res, true
}

func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
