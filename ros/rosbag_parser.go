// Package ros reads joint states recorded in ROS bags.
package ros

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()

	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}

	return rb, nil
}

// TopicKey returns the key gobag files the JSON messages of a topic under: no leading slash, lower case, and the
// remaining slashes replaced by underscores.
func TopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// AllMessagesForTopic returns all messages for a specific topic in the ros bag.
func AllMessagesForTopic(rb *rosbag.RosBag, topic string) ([]map[string]interface{}, error) {
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[TopicKey(topic)]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}
	return decodeMessageLines(msgs)
}

// decodeMessageLines reads newline delimited JSON messages.
func decodeMessageLines(r interface{ ReadBytes(byte) ([]byte, error) }) ([]map[string]interface{}, error) {
	all := []map[string]interface{}{}
	for {
		data, err := r.ReadBytes('\n')
		if len(strings.TrimSpace(string(data))) > 0 {
			message := map[string]interface{}{}
			if err := json.Unmarshal(data, &message); err != nil {
				return nil, err
			}
			all = append(all, message)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return all, nil
}
