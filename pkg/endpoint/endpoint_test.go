package endpoint_test

import (
	"encoding/json"
	"sync"

	"github.com/animalet/dockerhost-go/pkg/endpoint"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var _ = Describe("Resolve", func() {
	Context("TCP endpoints", func() {
		DescribeTable("keeps host and port",
			func(input, address string, port int, host string) {
				d, err := endpoint.Resolve(input, "")
				Expect(err).NotTo(HaveOccurred())
				Expect(d.Address()).To(Equal(address))
				Expect(d.Port()).To(Equal(port))
				Expect(d.Host()).To(Equal(host))
				Expect(d.Transport()).To(Equal(endpoint.TCP))
			},
			Entry("hostname", "docker.example.com:2376", "docker.example.com", 2376, "docker.example.com:2376"),
			Entry("ipv4", "198.51.100.7:4000", "198.51.100.7", 4000, "198.51.100.7:4000"),
			Entry("tcp scheme", "tcp://198.51.100.7:4000", "198.51.100.7", 4000, "198.51.100.7:4000"),
			Entry("http scheme", "http://10.0.0.1:80", "10.0.0.1", 80, "10.0.0.1:80"),
			Entry("bracketed ipv6", "[2001:db8::1]:2376", "2001:db8::1", 2376, "[2001:db8::1]:2376"),
			Entry("trailing slash", "tcp://1.2.3.4:2376/", "1.2.3.4", 2376, "1.2.3.4:2376"),
			Entry("trailing slashes without port", "tcp://1.2.3.4//", "1.2.3.4", 2375, "1.2.3.4:2375"),
		)

		It("resolves tcp://198.51.100.7:4000 without certificates", func() {
			d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Address()).To(Equal("198.51.100.7"))
			Expect(d.Port()).To(Equal(4000))
			Expect(d.URI().String()).To(Equal("http://198.51.100.7:4000"))
			Expect(d.BindURI().String()).To(Equal("tcp://198.51.100.7:4000"))
			Expect(d.CertPath()).To(BeEmpty())
			Expect(d.TLS()).To(BeFalse())
		})

		It("uses https for the REST URI when a certificate path is given", func() {
			d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "/home/user/.docker")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.URI().Scheme).To(Equal("https"))
			Expect(d.URI().String()).To(Equal("https://198.51.100.7:4000"))
			Expect(d.BindURI().String()).To(Equal("tcp://198.51.100.7:4000"))
			Expect(d.CertPath()).To(Equal("/home/user/.docker"))
			Expect(d.TLS()).To(BeTrue())
		})

		It("defaults the port to 2375", func() {
			d, err := endpoint.Resolve("198.51.100.7", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(endpoint.DefaultPort))
			Expect(d.Host()).To(Equal("198.51.100.7:2375"))
		})

		It("treats an empty port as absent", func() {
			d, err := endpoint.Resolve("198.51.100.7:", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(2375))
		})

		It("defaults an empty host to localhost", func() {
			d, err := endpoint.Resolve("tcp://:4000", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Address()).To(Equal("localhost"))
			Expect(d.Port()).To(Equal(4000))
			Expect(d.URI().String()).To(Equal("http://localhost:4000"))
		})

		// Without brackets every colon belongs to the address: "::4000" is the IPv6
		// host ::4000, not localhost on port 4000. ":4000" is the localhost form.
		It("treats an unbracketed address with several colons as an IPv6 host", func() {
			d, err := endpoint.Resolve("::1", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Address()).To(Equal("::1"))
			Expect(d.Port()).To(Equal(2375))
			Expect(d.BindURI().String()).To(Equal("tcp://[::1]:2375"))

			d, err = endpoint.Resolve("::4000", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Address()).To(Equal("::4000"))
			Expect(d.Port()).To(Equal(2375))
			Expect(d.Host()).To(Equal("[::4000]:2375"))
		})

		DescribeTable("falls back to the default port for malformed port text",
			func(input string) {
				d, err := endpoint.Resolve(input, "")
				Expect(err).NotTo(HaveOccurred())
				Expect(d.Port()).To(Equal(2375))
			},
			Entry("letters", "host:abc"),
			Entry("signed", "host:+80"),
			Entry("zero", "host:0"),
			Entry("out of range", "host:70000"),
		)
	})

	Context("port override", func() {
		It("applies a numeric override to endpoints without a port", func() {
			d, err := endpoint.Input{Endpoint: "198.51.100.7", PortOverride: "4243"}.Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(4243))
		})

		It("does not replace an explicit port", func() {
			d, err := endpoint.Input{Endpoint: "198.51.100.7:4000", PortOverride: "4243"}.Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(4000))
		})

		It("ignores a non-numeric override", func() {
			d, err := endpoint.Input{Endpoint: "198.51.100.7", PortOverride: "not-a-port"}.Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(2375))
		})

		It("is applied regardless of the certificate path", func() {
			d, err := endpoint.Input{Endpoint: "198.51.100.7", CertPath: "/certs", PortOverride: "2376"}.Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(2376))
			Expect(d.URI().String()).To(Equal("https://198.51.100.7:2376"))
		})
	})

	Context("Unix socket endpoints", func() {
		It("keeps the endpoint verbatim", func() {
			d, err := endpoint.Resolve(endpoint.DefaultUnixEndpoint, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(0))
			Expect(d.Address()).To(Equal("localhost"))
			Expect(d.Host()).To(Equal("unix:///var/run/docker.sock"))
			Expect(d.URI().String()).To(Equal("unix:///var/run/docker.sock"))
			Expect(d.BindURI().String()).To(Equal("unix:///var/run/docker.sock"))
			Expect(d.Transport()).To(Equal(endpoint.UNIX))
		})

		It("never switches to https", func() {
			d, err := endpoint.Resolve("unix:///run/user/1000/docker.sock", "/certs")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.URI().Scheme).To(Equal("unix"))
			Expect(d.URI()).To(Equal(d.BindURI()))
			Expect(d.CertPath()).To(Equal("/certs"))
			Expect(d.TLS()).To(BeFalse())
		})

		It("accepts percent-encoded paths", func() {
			d, err := endpoint.Resolve("unix:///tmp/a%20b.sock", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.URI().String()).To(Equal("unix:///tmp/a%20b.sock"))
			Expect(d.BindURI().Path).To(Equal("/tmp/a b.sock"))
		})

		It("ignores the port override", func() {
			d, err := endpoint.Input{Endpoint: "unix:///var/run/docker.sock", PortOverride: "4243"}.Resolve()
			Expect(err).NotTo(HaveOccurred())
			Expect(d.Port()).To(Equal(0))
		})
	})

	Context("invalid endpoints", func() {
		DescribeTable("are rejected with InvalidEndpointError",
			func(input string) {
				d, err := endpoint.Resolve(input, "")
				Expect(d).To(BeNil())
				Expect(err).To(MatchError(endpoint.ErrInvalidEndpoint))

				var invalid *endpoint.InvalidEndpointError
				Expect(errors.As(err, &invalid)).To(BeTrue())
				Expect(invalid.Endpoint).To(Equal(input))
			},
			Entry("empty", ""),
			Entry("unclosed bracket", "[::1:2375"),
			Entry("text after bracket", "[::1]x"),
			Entry("stray bracket", "host]:2375"),
			Entry("path in host", "tcp://host/path"),
			Entry("userinfo", "tcp://user@host:2375"),
			Entry("space in host", "tcp://my host:2375"),
			Entry("socket without path", "unix://"),
			Entry("unescaped space in socket path", "unix:///tmp/a b.sock"),
		)
	})

	Context("the descriptor value", func() {
		It("renders as its host", func() {
			d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(d.String()).To(Equal("198.51.100.7:4000"))
		})

		It("hands out copies of its URIs", func() {
			d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "/certs")
			Expect(err).NotTo(HaveOccurred())

			u := d.URI()
			u.Scheme = "ftp"
			u.Host = "evil:1"
			b := d.BindURI()
			b.Scheme = "udp"

			Expect(d.URI().String()).To(Equal("https://198.51.100.7:4000"))
			Expect(d.BindURI().String()).To(Equal("tcp://198.51.100.7:4000"))
		})

		It("resolves to an equal descriptor from its own host", func() {
			d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "")
			Expect(err).NotTo(HaveOccurred())
			again, err := endpoint.Resolve(d.Host(), "")
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(d))
		})

		It("can be resolved concurrently", func() {
			var wg sync.WaitGroup
			results := make([]string, 32)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					defer GinkgoRecover()
					d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "")
					Expect(err).NotTo(HaveOccurred())
					results[i] = d.BindURI().String()
				}(i)
			}
			wg.Wait()
			for _, r := range results {
				Expect(r).To(Equal("tcp://198.51.100.7:4000"))
			}
		})

		It("marshals to JSON", func() {
			d, err := endpoint.Resolve("tcp://198.51.100.7:4000", "/certs")
			Expect(err).NotTo(HaveOccurred())
			data, err := json.Marshal(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{
				"host": "198.51.100.7:4000",
				"uri": "https://198.51.100.7:4000",
				"bind_uri": "tcp://198.51.100.7:4000",
				"address": "198.51.100.7",
				"port": 4000,
				"cert_path": "/certs",
				"transport": "tcp",
				"tls": true
			}`))
		})

		It("marshals to YAML", func() {
			d, err := endpoint.Resolve(endpoint.DefaultUnixEndpoint, "")
			Expect(err).NotTo(HaveOccurred())
			data, err := yaml.Marshal(d)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchYAML(`
host: unix:///var/run/docker.sock
uri: unix:///var/run/docker.sock
bind_uri: unix:///var/run/docker.sock
address: localhost
port: 0
transport: unix
tls: false
`))
		})
	})
})

var _ = Describe("Defaults", func() {
	It("prefers the socket on linux", func() {
		Expect(endpoint.DefaultEndpoint(endpoint.OS("linux"), "")).To(Equal(endpoint.DefaultUnixEndpoint))
	})

	It("uses localhost elsewhere", func() {
		Expect(endpoint.DefaultEndpoint(endpoint.OS("darwin"), "")).To(Equal("localhost:2375"))
		Expect(endpoint.DefaultEndpoint(endpoint.OS("windows"), "4243")).To(Equal("localhost:4243"))
		Expect(endpoint.DefaultEndpoint(endpoint.OS("windows"), "junk")).To(Equal("localhost:2375"))
	})

	It("reports the current platform", func() {
		Expect(endpoint.CurrentPlatform()).NotTo(BeNil())
	})
})
