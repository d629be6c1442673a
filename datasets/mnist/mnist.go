// Package mnist loads the MNIST handwritten digit dataset from gzipped IDX
// files in a configured directory, downloading them from the standard mirror
// when absent. File integrity is verified by sha256 before parsing.
package mnist

import "bytes"
import "compress/gzip"
import "crypto/sha256"
import "encoding/binary"
import "fmt"
import "io"
import "net/http"
import "os"
import "path/filepath"

import "github.com/pkg/errors"

// Image geometry of the dataset.
const ImgSize = 28
const ImgPixels = ImgSize * ImgSize

// NumClasses is the number of digit classes.
const NumClasses = 10

const mirrorURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"

const trainSetImg = "train-images-idx3-ubyte.gz"
const trainSetVal = "train-labels-idx1-ubyte.gz"
const inferSetImg = "t10k-images-idx3-ubyte.gz"
const inferSetVal = "t10k-labels-idx1-ubyte.gz"

// sha256 digests of the four canonical distribution files
var digests = map[string]string{
	inferSetImg: "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6",
	inferSetVal: "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6",
	trainSetImg: "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609",
	trainSetVal: "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c",
}

const imagesMagic = 2051
const labelsMagic = 2049

// Dataset holds one MNIST split fully in memory.
type Dataset struct {
	Images [][]byte // each ImgPixels long, row-major, 0..255
	Labels []byte   // digit class per image
}

// Len returns the number of samples in the split.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Load reads the train or test split from dir. When download is true, missing
// files are fetched from the standard mirror first. Files failing checksum
// verification are rejected.
func Load(dir string, train bool, download bool) (*Dataset, error) {
	imgName, lblName := inferSetImg, inferSetVal
	if train {
		imgName, lblName = trainSetImg, trainSetVal
	}
	imgData, err := ensureFile(dir, imgName, download)
	if err != nil {
		return nil, err
	}
	lblData, err := ensureFile(dir, lblName, download)
	if err != nil {
		return nil, err
	}
	images, err := parseImages(imgData)
	if err != nil {
		return nil, errors.Wrap(err, imgName)
	}
	labels, err := parseLabels(lblData)
	if err != nil {
		return nil, errors.Wrap(err, lblName)
	}
	if len(images) != len(labels) {
		return nil, errors.Errorf("mnist: %d images but %d labels", len(images), len(labels))
	}
	return &Dataset{Images: images, Labels: labels}, nil
}

// ensureFile returns the uncompressed contents of dir/name, downloading and
// checksum-verifying it first if needed.
func ensureFile(dir, name string, download bool) ([]byte, error) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "mnist: stat %s", path)
		}
		if !download {
			return nil, errors.Errorf("mnist: file %s does not exist", path)
		}
		if err := fetch(dir, name); err != nil {
			return nil, err
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mnist: read %s", path)
	}
	sum := fmt.Sprintf("%x", sha256.Sum256(raw))
	if want, ok := digests[name]; ok && sum != want {
		return nil, errors.Errorf("mnist: checksum mismatch for %s", path)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "mnist: gunzip %s", path)
	}
	defer gz.Close()
	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, errors.Wrapf(err, "mnist: gunzip %s", path)
	}
	return data, nil
}

func fetch(dir, name string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "mnist: create data dir")
	}
	resp, err := http.Get(mirrorURL + name)
	if err != nil {
		return errors.Wrapf(err, "mnist: download %s", name)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("mnist: download %s: %s", name, resp.Status)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return errors.Wrapf(err, "mnist: create %s", name)
	}
	_, err = io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "mnist: save %s", name)
}

func parseImages(data []byte) ([][]byte, error) {
	if len(data) < 16 {
		return nil, errors.New("truncated image header")
	}
	if magic := binary.BigEndian.Uint32(data); magic != imagesMagic {
		return nil, errors.Errorf("bad image magic %d", magic)
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	rows := int(binary.BigEndian.Uint32(data[8:]))
	cols := int(binary.BigEndian.Uint32(data[12:]))
	if rows != ImgSize || cols != ImgSize {
		return nil, errors.Errorf("unexpected image geometry %dx%d", rows, cols)
	}
	body := data[16:]
	if len(body) < count*ImgPixels {
		return nil, errors.New("truncated image data")
	}
	images := make([][]byte, count)
	for i := range images {
		images[i] = body[i*ImgPixels : (i+1)*ImgPixels : (i+1)*ImgPixels]
	}
	return images, nil
}

func parseLabels(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, errors.New("truncated label header")
	}
	if magic := binary.BigEndian.Uint32(data); magic != labelsMagic {
		return nil, errors.Errorf("bad label magic %d", magic)
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	body := data[8:]
	if len(body) < count {
		return nil, errors.New("truncated label data")
	}
	return body[:count:count], nil
}
