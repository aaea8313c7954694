package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Brownie44l1/aquasense/internal/model"
	"github.com/Brownie44l1/aquasense/internal/segment"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uniformModel struct {
	value float32
}

func (m uniformModel) Layout() segment.Layout { return segment.LayoutNHWC }

func (m uniformModel) Predict(input []float32) ([]float32, []int64, error) {
	out := make([]float32, segment.InputSize*segment.InputSize)
	for i := range out {
		out[i] = m.value
	}
	return out, []int64{1, segment.InputSize, segment.InputSize, 1}, nil
}

type fakeSource struct {
	model segment.Model
	err   error
	names []string
}

func (s *fakeSource) Model(name string) (segment.Model, error) {
	s.names = append(s.names, name)
	if s.err != nil {
		return nil, s.err
	}
	return s.model, nil
}

func newTestServer(t *testing.T, source ModelSource, catalog []model.Info) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := httptest.NewServer(NewRouter(NewHandler(source, catalog, 10<<20), log))
	t.Cleanup(srv.Close)
	return srv
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 11, G: 11, B: 11, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	const prefix = "data:image/png;base64,"
	require.True(t, strings.HasPrefix(uri, prefix))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func upload(t *testing.T, url string, data []byte, form map[string]string) *resty.Response {
	t.Helper()
	resp, err := resty.New().R().
		SetFileReader("image", "scene.png", bytes.NewReader(data)).
		SetFormData(form).
		Post(url)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	resp, err := resty.New().R().Get(srv.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"status":"healthy"}`, resp.String())
}

func TestModels(t *testing.T) {
	catalog := []model.Info{{Name: model.UNet, ImageSize: 256, Metrics: &model.Metrics{IoU: 89.77}}}
	srv := newTestServer(t, &fakeSource{}, catalog)

	var body struct {
		Models []model.Info `json:"models"`
	}
	resp, err := resty.New().R().SetResult(&body).Get(srv.URL + "/models")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	require.Len(t, body.Models, 1)
	assert.Equal(t, model.UNet, body.Models[0].Name)
	assert.Equal(t, 89.77, body.Models[0].Metrics.IoU)
}

func TestSegment(t *testing.T) {
	source := &fakeSource{model: uniformModel{value: 1}}
	srv := newTestServer(t, source, nil)

	resp := upload(t, srv.URL+"/segment", pngBytes(t, 40, 20), map[string]string{"model": "deeplabv3plus"})
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())

	var body SegmentResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &body))
	assert.Equal(t, "DeepLabV3+", body.Model)
	assert.Equal(t, 40, body.Width)
	assert.Equal(t, 20, body.Height)
	assert.Equal(t, 1.0, body.WaterFraction)
	assert.NotEmpty(t, body.RequestID)
	assert.Equal(t, body.RequestID, resp.Header().Get("X-Request-ID"))
	assert.Equal(t, []string{"DeepLabV3+"}, source.names)

	for _, uri := range []string{body.Original, body.Mask, body.Overlay} {
		img := decodeDataURI(t, uri)
		assert.Equal(t, image.Rect(0, 0, 40, 20), img.Bounds())
	}

	r, g, b, _ := decodeDataURI(t, body.Mask).At(3, 3).RGBA()
	assert.Equal(t, []uint32{65, 105, 225}, []uint32{r >> 8, g >> 8, b >> 8})
	r, g, b, _ = decodeDataURI(t, body.Overlay).At(3, 3).RGBA()
	assert.Equal(t, []uint32{27, 39, 75}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestSegmentDefaultsToUNet(t *testing.T) {
	source := &fakeSource{model: uniformModel{}}
	srv := newTestServer(t, source, nil)

	resp := upload(t, srv.URL+"/segment", pngBytes(t, 8, 8), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())
	assert.Equal(t, []string{"U-Net"}, source.names)

	resp = upload(t, srv.URL+"/segment?model=deeplab", pngBytes(t, 8, 8), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())
	assert.Equal(t, []string{"U-Net", "DeepLabV3+"}, source.names)
}

func TestSegmentRejectsUnknownModelBeforeLoading(t *testing.T) {
	source := &fakeSource{model: uniformModel{}}
	srv := newTestServer(t, source, nil)

	resp := upload(t, srv.URL+"/segment", pngBytes(t, 8, 8), map[string]string{"model": "SegFormer"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, resp.String(), "Unknown model")
	assert.Empty(t, source.names)
}

func TestSegmentBadRequests(t *testing.T) {
	source := &fakeSource{model: uniformModel{}}
	srv := newTestServer(t, source, nil)

	resp := upload(t, srv.URL+"/segment", []byte("not an image"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, resp.String(), "Invalid image format")

	resp, err := resty.New().R().SetFormData(map[string]string{"model": "U-Net"}).
		SetMultipartField("other", "x.txt", "text/plain", strings.NewReader("x")).
		Post(srv.URL + "/segment")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
	assert.Contains(t, resp.String(), "No image file provided")

	resp, err = resty.New().R().SetBody(`{"image":[]}`).Post(srv.URL + "/segment")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	assert.Empty(t, source.names)
}

func TestSegmentLoadFailure(t *testing.T) {
	source := &fakeSource{err: &model.LoadError{Name: model.DeepLabV3Plus, Err: errors.New("corrupt artifact")}}
	srv := newTestServer(t, source, nil)

	resp := upload(t, srv.URL+"/segment", pngBytes(t, 8, 8), map[string]string{"model": "DeepLabV3+"})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode())
	assert.Contains(t, resp.String(), "Failed to load model")
}

func TestDownload(t *testing.T) {
	srv := newTestServer(t, &fakeSource{model: uniformModel{value: 1}}, nil)

	cases := map[string]string{
		"original": "original_image.png",
		"mask":     "segmentation_mask.png",
		"overlay":  "overlay_result.png",
		"binary":   "binary_mask.png",
	}
	for artifact, filename := range cases {
		t.Run(artifact, func(t *testing.T) {
			resp := upload(t, srv.URL+"/segment/"+artifact, pngBytes(t, 30, 10), nil)
			require.Equal(t, http.StatusOK, resp.StatusCode(), resp.String())
			assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="`+filename+`"`, resp.Header().Get("Content-Disposition"))

			img, err := png.Decode(bytes.NewReader(resp.Body()))
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 30, 10), img.Bounds())
		})
	}
}

func TestDownloadUnknownArtifact(t *testing.T) {
	source := &fakeSource{model: uniformModel{}}
	srv := newTestServer(t, source, nil)

	resp := upload(t, srv.URL+"/segment/heatmap", pngBytes(t, 8, 8), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Empty(t, source.names)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &fakeSource{}, nil)

	resp, err := resty.New().R().Options(srv.URL + "/segment")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))
}
