package mqtt

import (
	"context"
	"errors"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

type fakePahoClient struct {
	paho.Client

	opts          *paho.ClientOptions
	failConnects  int
	connectCalls  int
	subscriptions []string
	handlers      map[string]paho.MessageHandler
	published     []publishedMessage
	mu            sync.Mutex
}

type publishedMessage struct {
	topic   string
	qos     byte
	payload []byte
}

func (c *fakePahoClient) Connect() paho.Token {
	c.mu.Lock()
	c.connectCalls++
	fail := c.connectCalls <= c.failConnects
	c.mu.Unlock()

	if fail {
		return &fakeToken{err: errors.New("connection refused")}
	}
	c.opts.OnConnect(c)
	return &fakeToken{}
}

func (c *fakePahoClient) Subscribe(topic string, _ byte, callback paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions = append(c.subscriptions, topic)
	c.handlers[topic] = callback
	return &fakeToken{}
}

func (c *fakePahoClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, publishedMessage{topic: topic, qos: qos, payload: payload.([]byte)})
	return &fakeToken{}
}

func (c *fakePahoClient) Disconnect(uint) {}

func (c *fakePahoClient) subscribed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.subscriptions...)
}

type fakeMessage struct {
	paho.Message
	payload []byte
}

func (m *fakeMessage) Payload() []byte { return m.payload }

var _ = ginkgo.Describe("SimpleClient", func() {
	var (
		fake   *fakePahoClient
		client *SimpleClient
	)

	newClient := func(failConnects int) {
		fake = &fakePahoClient{failConnects: failConnects, handlers: map[string]paho.MessageHandler{}}
		client = newSimpleClient(SimpleClientOpts{
			Broker:         "tcp://localhost:1883",
			ClientID:       "test-client",
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		}, func(opts *paho.ClientOptions) paho.Client {
			fake.opts = opts
			return fake
		})
	}

	ginkgo.Context("Connect", func() {
		ginkgo.When("the broker refuses the first attempts", func() {
			ginkgo.BeforeEach(func() {
				newClient(3)
			})

			ginkgo.It("should keep retrying until it connects", func() {
				gomega.Expect(client.IsConnected()).To(gomega.BeFalse())

				err := client.Connect(context.Background())

				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(fake.connectCalls).To(gomega.Equal(4))
				gomega.Expect(client.IsConnected()).To(gomega.BeTrue())
			})
		})

		ginkgo.When("the context ends before the broker is reachable", func() {
			ginkgo.BeforeEach(func() {
				newClient(1 << 30)
			})

			ginkgo.It("should stop retrying and report the error", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
				defer cancel()

				err := client.Connect(ctx)

				gomega.Expect(err).To(gomega.HaveOccurred())
				gomega.Expect(client.IsConnected()).To(gomega.BeFalse())
			})
		})
	})

	ginkgo.Context("Subscribe", func() {
		ginkgo.BeforeEach(func() {
			newClient(0)
		})

		ginkgo.When("called before connecting", func() {
			ginkgo.It("should apply the subscription once connected", func() {
				err := client.Subscribe("living_room/sensor", QoSAtLeastOnce, func(Client, Message) {})
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
				gomega.Expect(fake.subscribed()).To(gomega.BeEmpty())

				gomega.Expect(client.Connect(context.Background())).To(gomega.Succeed())

				gomega.Expect(fake.subscribed()).To(gomega.ConsistOf("living_room/sensor"))
			})
		})

		ginkgo.When("the connection is lost and restored", func() {
			ginkgo.It("should resubscribe on reconnect", func() {
				gomega.Expect(client.Connect(context.Background())).To(gomega.Succeed())
				gomega.Expect(client.Subscribe("living_room/sensor", QoSAtLeastOnce, func(Client, Message) {})).To(gomega.Succeed())

				fake.opts.OnConnectionLost(fake, errors.New("broken pipe"))
				gomega.Expect(client.IsConnected()).To(gomega.BeFalse())

				fake.opts.OnConnect(fake)

				gomega.Expect(client.IsConnected()).To(gomega.BeTrue())
				gomega.Expect(fake.subscribed()).To(gomega.Equal([]string{"living_room/sensor", "living_room/sensor"}))
			})
		})

		ginkgo.When("a message arrives", func() {
			ginkgo.It("should hand it to the callback", func() {
				received := make(chan []byte, 1)
				gomega.Expect(client.Connect(context.Background())).To(gomega.Succeed())
				gomega.Expect(client.Subscribe("living_room/sensor", QoSAtLeastOnce, func(_ Client, msg Message) {
					received <- msg.Payload()
				})).To(gomega.Succeed())

				fake.handlers["living_room/sensor"](fake, &fakeMessage{payload: []byte(`{"temperature":21}`)})

				gomega.Eventually(received).Should(gomega.Receive(gomega.Equal([]byte(`{"temperature":21}`))))
			})
		})
	})

	ginkgo.Context("Publish", func() {
		ginkgo.BeforeEach(func() {
			newClient(0)
		})

		ginkgo.It("should marshal the message as json", func() {
			err := client.Publish("living_room/sensor", QoSAtLeastOnce, map[string]float64{"temperature": 21.5})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(fake.published).To(gomega.HaveLen(1))
			gomega.Expect(fake.published[0].qos).To(gomega.Equal(QoSAtLeastOnce))
			gomega.Expect(fake.published[0].payload).To(gomega.MatchJSON(`{"temperature": 21.5}`))
		})

		ginkgo.It("should send raw payloads untouched", func() {
			err := client.PublishRaw("living_room/sensor", QoSAtMostOnce, []byte{0x81, 0xa1, 0x74, 0x01})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(fake.published[0].payload).To(gomega.Equal([]byte{0x81, 0xa1, 0x74, 0x01}))
		})
	})

	ginkgo.Context("Disconnect", func() {
		ginkgo.It("should report disconnected", func() {
			newClient(0)
			gomega.Expect(client.Connect(context.Background())).To(gomega.Succeed())

			client.Disconnect()

			gomega.Expect(client.IsConnected()).To(gomega.BeFalse())
		})
	})
})
