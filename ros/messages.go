package ros

import (
	"time"

	"github.com/edaniels/gobag/rosbag"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/robotstate/robotstate"
)

// JointStateMessage is a sensor_msgs/JointState message as gobag renders it to JSON.
type JointStateMessage struct {
	Meta struct {
		Secs  int
		Nsecs int
	}
	Data struct {
		Header struct {
			Seq   int
			Stamp struct {
				Secs  int
				Nsecs int
			}
			FrameID string `json:"frame_id"`
		}
		Name     []string
		Position []float64
		Velocity []float64
		Effort   []float64
	}
}

// Time returns when the message was recorded.
func (msg *JointStateMessage) Time() time.Time {
	return time.Unix(int64(msg.Meta.Secs), int64(msg.Meta.Nsecs)).UTC()
}

// Update returns the named positions of the message as a joint state update. Every name needs a position.
func (msg *JointStateMessage) Update() (robotstate.JointUpdate, error) {
	return robotstate.NewJointUpdate(msg.Data.Name, msg.Data.Position)
}

// DecodeJointStateMessage decodes a JSON rendered message.
func DecodeJointStateMessage(message map[string]interface{}) (*JointStateMessage, error) {
	var msg JointStateMessage
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &msg})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(message); err != nil {
		return nil, errors.Wrap(err, "cannot decode joint state message")
	}
	return &msg, nil
}

// JointStatesForTopic returns every joint state message recorded on the topic, in bag order.
func JointStatesForTopic(rb *rosbag.RosBag, topic string) ([]*JointStateMessage, error) {
	all, err := AllMessagesForTopic(rb, topic)
	if err != nil {
		return nil, err
	}
	return decodeJointStates(all)
}

func decodeJointStates(all []map[string]interface{}) ([]*JointStateMessage, error) {
	msgs := make([]*JointStateMessage, 0, len(all))
	for i, message := range all {
		msg, err := DecodeJointStateMessage(message)
		if err != nil {
			return nil, errors.Wrapf(err, "message %d", i)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
