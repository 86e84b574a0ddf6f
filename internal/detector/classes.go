package detector

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// COCOClasses are the 80 class names emitted by YOLOv8 models trained on
// COCO, indexed by class ID.
var COCOClasses = []string{
	"person",
	"bicycle",
	"car",
	"motorcycle",
	"airplane",
	"bus",
	"train",
	"truck",
	"boat",
	"traffic light",
	"fire hydrant",
	"stop sign",
	"parking meter",
	"bench",
	"bird",
	"cat",
	"dog",
	"horse",
	"sheep",
	"cow",
	"elephant",
	"bear",
	"zebra",
	"giraffe",
	"backpack",
	"umbrella",
	"handbag",
	"tie",
	"suitcase",
	"frisbee",
	"skis",
	"snowboard",
	"sports ball",
	"kite",
	"baseball bat",
	"baseball glove",
	"skateboard",
	"surfboard",
	"tennis racket",
	"bottle",
	"wine glass",
	"cup",
	"fork",
	"knife",
	"spoon",
	"bowl",
	"banana",
	"apple",
	"sandwich",
	"orange",
	"broccoli",
	"carrot",
	"hot dog",
	"pizza",
	"donut",
	"cake",
	"chair",
	"couch",
	"potted plant",
	"bed",
	"dining table",
	"toilet",
	"tv",
	"laptop",
	"mouse",
	"remote",
	"keyboard",
	"cell phone",
	"microwave",
	"oven",
	"toaster",
	"sink",
	"refrigerator",
	"book",
	"clock",
	"vase",
	"scissors",
	"teddy bear",
	"hair drier",
	"toothbrush",
}

// LoadClassFile reads class names from a YAML file. Both the ultralytics
// data-file form (`names:` as a list or an ID-keyed map) and a plain
// `classes:` list are accepted.
func LoadClassFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class file: %w", err)
	}

	var doc struct {
		Names   yaml.Node `yaml:"names"`
		Classes []string  `yaml:"classes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse class file: %w", err)
	}

	names, err := decodeNames(doc.Names)
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return names, nil
	}
	if len(doc.Classes) > 0 {
		return doc.Classes, nil
	}

	return nil, fmt.Errorf("no class names found in %s", path)
}

// decodeNames handles the two spellings of the `names` field.
func decodeNames(node yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		// Field absent.
		return nil, nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, fmt.Errorf("parse names list: %w", err)
		}
		return names, nil
	case yaml.MappingNode:
		byID := map[int]string{}
		if err := node.Decode(&byID); err != nil {
			return nil, fmt.Errorf("parse names map: %w", err)
		}
		maxID := -1
		for id := range byID {
			if id < 0 {
				return nil, fmt.Errorf("negative class ID %d in names map", id)
			}
			if id > maxID {
				maxID = id
			}
		}
		names := make([]string, maxID+1)
		for id, name := range byID {
			names[id] = name
		}
		return names, nil
	default:
		return nil, fmt.Errorf("names must be a list or an ID-keyed map")
	}
}
