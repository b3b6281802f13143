package async_test

import (
	"context"

	"sensor-dashboard/internal/infra/async"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Local Broker", func() {
	var broker *async.LocalBroker
	var topic async.BrokerTopicName
	var subscription async.Subscription
	var message async.BrokerMessage
	var ctx context.Context

	BeforeEach(func() {
		broker = async.NewLocalBroker()
		ctx = context.TODO()
	})

	Context("Subscribe", func() {
		When("add a new subscriber for a topic", func() {
			BeforeEach(func() {
				topic = "readings"
			})

			It("should deliver published messages", func() {
				subscription, _ = broker.Subscribe(topic)

				broker.Publish(ctx, topic, async.BrokerMessage{Event: "new_data"})

				Eventually(subscription.Receiver).Should(Receive(HaveField("Event", "new_data")))
			})
		})

		When("multiple subscriptor", func() {
			var subscription2 async.Subscription
			BeforeEach(func() {
				topic = "readings"
			})

			It("should deliver to every subscriber", func() {
				subscription, _ = broker.Subscribe(topic)
				subscription2, _ = broker.Subscribe(topic)

				broker.Publish(ctx, topic, async.BrokerMessage{Event: "new_data"})

				Eventually(subscription.Receiver).Should(Receive(HaveField("Event", "new_data")))
				Eventually(subscription2.Receiver).Should(Receive(HaveField("Event", "new_data")))
			})
		})

		When("a new message arrives", func() {
			BeforeEach(func() {
				topic = "readings"
				subscription, _ = broker.Subscribe(topic)
				message = async.BrokerMessage{
					Event: "new_data",
					Value: "23.5",
				}
			})

			It("should receive a message from channel", func() {
				broker.Publish(context.TODO(), topic, message)

				Eventually(subscription.Receiver).Should(Receive(And(
					HaveField("Event", "new_data"),
					HaveField("Value", "23.5"),
				)))
			})
		})

		When("several messages are published", func() {
			BeforeEach(func() {
				topic = "readings"
				subscription, _ = broker.Subscribe(topic)
			})

			It("should keep publish order", func() {
				for i := 0; i < 10; i++ {
					Expect(broker.Publish(ctx, topic, async.BrokerMessage{Value: i})).To(Succeed())
				}

				for i := 0; i < 10; i++ {
					var received async.BrokerMessage
					Eventually(subscription.Receiver).Should(Receive(&received))
					Expect(received.Value).To(Equal(i))
				}
			})
		})

		When("stop broker", func() {
			BeforeEach(func() {
				topic = "readings"
				subscription, _ = broker.Subscribe(topic)
			})

			It("should close the receiver", func() {
				go broker.Stop()

				Eventually(subscription.Receiver).Should(BeClosed())
			})
		})
	})

	Context("Unsubscribe", func() {
		When("there is no subscriptor", func() {
			BeforeEach(func() {
				topic = "readings"
				subscription = async.Subscription{
					ID: "2d582ce4-88e1-40a8-bc14-5cf0311943fd",
				}
			})

			It("should fail with topic not found", func() {
				err := broker.Unsubscribe(topic, subscription)

				Expect(err).Should(MatchError(async.ErrTopicNotFound))
			})
		})

		When("subscriptor doesn't exists", func() {
			var subscription2 async.Subscription
			BeforeEach(func() {
				topic = "readings"
				subscription, _ = broker.Subscribe(topic)
				subscription2 = async.Subscription{
					ID: "2d582ce4-88e1-40a8-bc14-5cf0311943fd",
				}
			})

			It("should fail with subscriptor not found", func() {
				err := broker.Unsubscribe(topic, subscription2)

				Expect(err).Should(MatchError(async.ErrSubscriptorNotFound))
			})
		})

		When("subscriptor does exists", func() {
			BeforeEach(func() {
				topic = "readings"
				subscription, _ = broker.Subscribe(topic)
				broker.Unsubscribe(topic, subscription)
			})

			It("should close the receiver and stop delivering", func() {
				Expect(broker.Publish(context.TODO(), topic, async.BrokerMessage{Event: "new_data"})).To(Succeed())

				Eventually(subscription.Receiver).Should(BeClosed())
			})
		})

		When("is called twice", func() {
			BeforeEach(func() {
				topic = "readings"
				subscription, _ = broker.Subscribe(topic)
				broker.Unsubscribe(topic, subscription)
			})

			It("should not panic", func() {
				err := broker.Unsubscribe(topic, subscription)

				Expect(err).Should(MatchError(async.ErrSubscriptorNotFound))
			})
		})
	})

	Context("Publish", func() {
		When("topic doesn't exists", func() {
			It("should return an error", func() {
				err := broker.Publish(context.TODO(), "unknown", async.BrokerMessage{})

				Expect(err).Should(MatchError(async.ErrTopicNotFound))
			})
		})

		When("there is no subscriptor", func() {
			BeforeEach(func() {
				topic = "readings"
				subcription, _ := broker.Subscribe(topic)
				broker.Unsubscribe(topic, subcription)
			})

			It("should return no error", func() {
				err := broker.Publish(context.TODO(), topic, async.BrokerMessage{})

				Expect(err).Should(Succeed())
			})
		})

		When("a subscriber is not draining", func() {
			var slow, fast async.Subscription
			BeforeEach(func() {
				broker = async.NewLocalBroker(async.WithSubscriptionBuffer(1))
				topic = "readings"
				slow, _ = broker.Subscribe(topic)
				fast, _ = broker.Subscribe(topic)
			})

			It("should drop for the slow one and keep publishing", func() {
				received := make(chan async.BrokerMessage, 3)
				go func() {
					for msg := range fast.Receiver {
						received <- msg
					}
				}()

				for i := 0; i < 3; i++ {
					Expect(broker.Publish(ctx, topic, async.BrokerMessage{Value: i})).To(Succeed())
					Eventually(received).Should(Receive(HaveField("Value", i)))
				}

				Expect(slow.Receiver).To(HaveLen(1))
				Expect(slow.Receiver).To(Receive(HaveField("Value", 0)))
			})
		})
	})
})
