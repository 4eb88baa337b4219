package vcfindex

import (
	"errors"
	"fmt"
	"os"

	"github.com/biogo/hts/csi"
	"github.com/biogo/hts/tabix"
)

// errNoSidecar indicates that neither a .csi nor a .tbi sidecar exists
// next to the VCF file.
var errNoSidecar = errors.New("vcfindex: no sidecar index present")

// CSIPath and TBIPath return the conventional sidecar paths for vcfPath.
func CSIPath(vcfPath string) string { return vcfPath + ".csi" }
func TBIPath(vcfPath string) string { return vcfPath + ".tbi" }

// openSidecar tries to load an existing index, large-coordinate (CSI)
// first, then legacy (TBI), returning errNoSidecar if neither is present.
func openSidecar(vcfPath string) (*Index, error) {
	if idx, err := loadCSIFile(CSIPath(vcfPath)); err == nil {
		return idx, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if idx, err := loadTBIFile(TBIPath(vcfPath)); err == nil {
		return idx, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return nil, errNoSidecar
}

func loadCSIFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := csi.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("vcfindex: reading csi %s: %w", path, err)
	}
	return fromCSI(idx), nil
}

func loadTBIFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx, err := tabix.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("vcfindex: reading tbi %s: %w", path, err)
	}
	return fromTBI(idx), nil
}
