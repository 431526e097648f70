package mines

import "github.com/sirupsen/logrus"

var Log = logrus.New()

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
