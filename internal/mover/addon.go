package mover

import (
	"archive/zip"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// BadXPIError reports an add-on archive from which neither a legacy
// install.rdf nor a manifest.json yielded both a name and a version. It is
// distinct from plain I/O errors so callers can tell a corrupt add-on from
// an unreadable file.
type BadXPIError struct {
	Path string
}

func (e *BadXPIError) Error() string {
	return fmt.Sprintf("error loading XPI data from %s", e.Path)
}

// AddonData is the identity under which an add-on is published.
type AddonData struct {
	Name    string
	Version string
}

// AddonDataFromXPI extracts the add-on id and version from an XPI archive,
// preferring the legacy install.rdf descriptor over manifest.json. Langpack
// uploads are named after this identity on the release endpoints; the
// artifact move pipeline itself never opens an XPI.
func AddonDataFromXPI(path string) (*AddonData, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening XPI %s: %w", path, err)
	}
	defer archive.Close()

	var rdf, manifest *zip.File
	for _, file := range archive.File {
		switch file.Name {
		case "install.rdf":
			rdf = file
		case "manifest.json":
			manifest = file
		}
	}

	var data AddonData
	switch {
	case rdf != nil:
		data, err = addonDataFromRDF(rdf)
	case manifest != nil:
		data, err = addonDataFromManifest(manifest)
	default:
		return nil, &BadXPIError{Path: path}
	}
	if err != nil {
		return nil, err
	}

	if data.Name == "" || data.Version == "" {
		return nil, &BadXPIError{Path: path}
	}
	return &data, nil
}

// addonDataFromRDF picks the id and version children of the first
// Description node. Namespaced tags like em:id match on their local suffix,
// the same loose rule the legacy descriptor always relied on.
func addonDataFromRDF(file *zip.File) (AddonData, error) {
	reader, err := file.Open()
	if err != nil {
		return AddonData{}, fmt.Errorf("opening install.rdf: %w", err)
	}
	defer reader.Close()

	var data AddonData
	decoder := xml.NewDecoder(reader)
	depth := 0
	inDescription := false
	var field *string
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return AddonData{}, fmt.Errorf("parsing install.rdf: %w", err)
		}

		switch element := token.(type) {
		case xml.StartElement:
			depth++
			if depth == 2 && element.Name.Local == "Description" {
				inDescription = true
			}
			if inDescription && depth == 3 {
				switch {
				case strings.HasSuffix(element.Name.Local, "id"):
					field = &data.Name
				case strings.HasSuffix(element.Name.Local, "version"):
					field = &data.Version
				default:
					field = nil
				}
			}
		case xml.EndElement:
			if depth == 2 {
				inDescription = false
			}
			depth--
			field = nil
		case xml.CharData:
			if field != nil {
				*field += string(element)
			}
		}
	}
	return data, nil
}

func addonDataFromManifest(file *zip.File) (AddonData, error) {
	reader, err := file.Open()
	if err != nil {
		return AddonData{}, fmt.Errorf("opening manifest.json: %w", err)
	}
	defer reader.Close()

	var manifest struct {
		Version      string `json:"version"`
		Applications struct {
			Gecko struct {
				ID string `json:"id"`
			} `json:"gecko"`
		} `json:"applications"`
	}
	if err := json.NewDecoder(reader).Decode(&manifest); err != nil {
		return AddonData{}, fmt.Errorf("parsing manifest.json: %w", err)
	}
	return AddonData{Name: manifest.Applications.Gecko.ID, Version: manifest.Version}, nil
}
