package extraction

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testImageBytes(encode func(*bytes.Buffer, image.Image) error) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	Expect(encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("HTTPFetcher", func() {
	var (
		handler http.HandlerFunc
		server  *httptest.Server
		fetcher *HTTPFetcher

		payload ImagePayload
		err     error
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			w.Write(testImageBytes(func(buf *bytes.Buffer, img image.Image) error {
				return png.Encode(buf, img)
			}))
		}
	})

	JustBeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
		fetcher = NewHTTPFetcherWithClient(server.Client())
		payload, err = fetcher.Fetch(context.Background(), server.URL+"/receipt.png")
	})

	When("the server returns a PNG", func() {
		It("should return the payload as PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.MIMEType).To(Equal("image/png"))

			_, decodeErr := png.Decode(bytes.NewReader(payload.Data))
			Expect(decodeErr).NotTo(HaveOccurred())
		})
	})

	When("the server returns a JPEG", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				w.Write(testImageBytes(func(buf *bytes.Buffer, img image.Image) error {
					return jpeg.Encode(buf, img, nil)
				}))
			}
		})

		It("should convert the payload to PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.MIMEType).To(Equal("image/png"))

			_, decodeErr := png.Decode(bytes.NewReader(payload.Data))
			Expect(decodeErr).NotTo(HaveOccurred())
		})
	})

	When("the content type carries parameters", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/png; charset=utf-8")
				w.Write(testImageBytes(func(buf *bytes.Buffer, img image.Image) error {
					return png.Encode(buf, img)
				}))
			}
		})

		It("should normalize the media type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(payload.MIMEType).To(Equal("image/png"))
		})
	})

	When("the resource is missing", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			}
		})

		It("should return a fetch error with the status code", func() {
			var fetchErr *FetchError
			Expect(errors.As(err, &fetchErr)).To(BeTrue())
			Expect(fetchErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	When("the resource is not an image", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>not a receipt</html>"))
			}
		})

		It("should return an unsupported media error", func() {
			var mediaErr *UnsupportedMediaError
			Expect(errors.As(err, &mediaErr)).To(BeTrue())
			Expect(mediaErr.ContentType).To(Equal("text/html"))
		})
	})

	When("the image bytes are corrupt", func() {
		BeforeEach(func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "image/jpeg")
				w.Write([]byte("definitely not a jpeg"))
			}
		})

		It("should return a fetch error", func() {
			var fetchErr *FetchError
			Expect(errors.As(err, &fetchErr)).To(BeTrue())
		})
	})
})
