package urdf

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/robotstate/spatialmath"
)

// robot represents the supported fields of a Universal Robot Description Format (URDF) document.
type robot struct {
	XMLName xml.Name `xml:"robot"`
	Name    string   `xml:"name,attr"`
	Links   []link   `xml:"link"`
	Joints  []joint  `xml:"joint"`
}

// link is a struct which details the XML used in a URDF link element.
type link struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
	Visual  []visual `xml:"visual"`
}

// joint is a struct which details the XML used in a URDF joint element.
type joint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Parent  frame    `xml:"parent"`
	Child   frame    `xml:"child"`
	Origin  *pose    `xml:"origin,omitempty"`
	Axis    *axis    `xml:"axis,omitempty"`
	Limit   *limit   `xml:"limit,omitempty"`
}

type visual struct {
	XMLName  xml.Name `xml:"visual"`
	Origin   *pose    `xml:"origin"`
	Geometry struct {
		XMLName  xml.Name  `xml:"geometry"`
		Box      *box      `xml:"box,omitempty"`
		Sphere   *sphere   `xml:"sphere,omitempty"`
		Cylinder *cylinder `xml:"cylinder,omitempty"`
		Mesh     *mesh     `xml:"mesh,omitempty"`
	} `xml:"geometry"`
}

type box struct {
	XMLName xml.Name `xml:"box"`
	Size    string   `xml:"size,attr"` // "x y z" format, in meters
}

type sphere struct {
	XMLName xml.Name `xml:"sphere"`
	Radius  float64  `xml:"radius,attr"` // in meters
}

type cylinder struct {
	XMLName xml.Name `xml:"cylinder"`
	Radius  float64  `xml:"radius,attr"`
	Length  float64  `xml:"length,attr"`
}

type mesh struct {
	XMLName  xml.Name `xml:"mesh"`
	Filename string   `xml:"filename,attr"` // resource path, often a package:// URI
}

type frame struct {
	Link string `xml:"link,attr"`
}

type limit struct {
	XMLName xml.Name `xml:"limit"`
	Lower   float64  `xml:"lower,attr"` // translation limits are in meters, revolute limits are in radians
	Upper   float64  `xml:"upper,attr"` // translation limits are in meters, revolute limits are in radians
}

type axis struct {
	XMLName xml.Name `xml:"axis"`
	XYZ     string   `xml:"xyz,attr"`
}

// Parse returns the joint axis, (1, 0, 0) when the element is absent.
func (a *axis) Parse() (r3.Vector, error) {
	if a == nil {
		return r3.Vector{X: 1}, nil
	}
	xyz, err := parseTriple(a.XYZ, "axis xyz")
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

type pose struct {
	XMLName xml.Name `xml:"origin"`
	RPY     string   `xml:"rpy,attr"` // Fixed frame angle "r p y" format, in radians
	XYZ     string   `xml:"xyz,attr"` // "x y z" format, in meters
}

// Parse returns the origin as a pose, the identity when the element is absent.
func (p *pose) Parse() (spatial.Pose, error) {
	if p == nil {
		return spatial.NewZeroPose(), nil
	}
	xyz, err := parseTriple(p.XYZ, "origin xyz")
	if err != nil {
		return nil, err
	}
	rpy, err := parseTriple(p.RPY, "origin rpy")
	if err != nil {
		return nil, err
	}
	return spatial.NewPose(
		r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		&spatial.EulerAngles{Roll: rpy[0], Pitch: rpy[1], Yaw: rpy[2]},
	), nil
}

// parseTriple splits up a space delimited field of three floats. An empty field is all zeros.
func parseTriple(s, field string) ([3]float64, error) {
	var converted [3]float64
	values := strings.Fields(s)
	if len(values) == 0 {
		return converted, nil
	}
	if len(values) != 3 {
		return converted, errors.Errorf("%s %q does not have 3 values", field, s)
	}
	for i, value := range values {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return converted, errors.Wrapf(err, "cannot parse %s %q", field, s)
		}
		converted[i] = f
	}
	return converted, nil
}
